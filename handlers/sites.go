package handlers

import (
	"fmt"
	"net/http"

	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/sites"
	"p9e.in/gaugewatch/utils"
)

// ListSites returns every registered gauge site
// @Summary List gauge sites
// @Tags sites
// @Produce json
// @Success 200 {array} models.Site
// @Router /sites [get]
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.resolver.Registry().All())
}

// NearestSite resolves the site closest to a coordinate
// @Summary Find the nearest gauge site
// @Description Returns the closest site with its distance and whether the point is inside the verification radius
// @Tags sites
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} NearestSiteResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sites/nearest [get]
func (h *Handler) NearestSite(w http.ResponseWriter, r *http.Request) {
	lat, err := floatParam(r, "lat")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := floatParam(r, "lng")
	if err != nil {
		writeError(w, r, err)
		return
	}
	observer, err := utils.NewCoordinate(lat, lng)
	if err != nil {
		writeError(w, r, invalidParam("lat/lng", fmt.Sprintf("%v,%v", lat, lng)))
		return
	}

	resolved, err := h.resolver.Nearest(observer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NearestSiteResponse{
		ResolvedSite: resolved,
		WithinRadius: resolved.WithinRadius(),
	})
}

// NearestSiteResponse is the body of GET /sites/nearest.
type NearestSiteResponse struct {
	models.ResolvedSite
	WithinRadius bool `json:"withinRadius"`
}

// SitesGeoJSON returns the registry as a GeoJSON feature collection
// @Summary Gauge sites as GeoJSON
// @Tags sites
// @Produce json
// @Success 200 {object} object
// @Router /sites/geojson [get]
func (h *Handler) SitesGeoJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sites.FeatureCollection(h.resolver.Registry().All()))
}
