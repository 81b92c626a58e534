package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/mux"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/dashboard"
	"p9e.in/gaugewatch/pkg/readings"
)

// Dashboard returns the cached dashboard snapshot
// @Summary Dashboard snapshot
// @Description Summary statistics, the 20 newest readings and all alerts. Refreshed every poll interval.
// @Tags dashboard
// @Produce json
// @Success 200 {object} dashboard.Snapshot
// @Failure 503 {object} ErrorResponse
// @Router /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.poller.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(h.poller.Interval().Seconds())))
	writeJSON(w, http.StatusOK, snap)
}

// DashboardMap returns the live map layer
// @Summary Live map
// @Description GeoJSON with one feature per site and one per latest reading
// @Tags dashboard
// @Produce json
// @Success 200 {object} object
// @Router /dashboard/map [get]
func (h *Handler) DashboardMap(w http.ResponseWriter, r *http.Request) {
	snap, err := h.poller.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.MapFeatures(h.resolver.Registry(), snap.LatestBySite))
}

// SiteTrend returns the water-level history of a site
// @Summary Site trend
// @Tags dashboard
// @Produce json
// @Param id path string true "Site id"
// @Param days query int false "Look-back window in days (default 7, max 3650)"
// @Success 200 {object} dashboard.Trend
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sites/{id}/trend [get]
func (h *Handler) SiteTrend(w http.ResponseWriter, r *http.Request) {
	siteID := mux.Vars(r)["id"]
	if _, ok := h.resolver.Registry().Get(siteID); !ok {
		writeError(w, r, fmt.Errorf("site %q: %w", siteID, readings.ErrNotFound))
		return
	}
	days, err := daysParam(r, dashboard.DefaultTrendDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if days == 0 {
		days = dashboard.DefaultTrendDays
	}

	since := h.now().Add(-time.Duration(days) * 24 * time.Hour)
	list, err := h.queries.ListBySiteSince(r.Context(), siteID, since, readings.MaxLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.BuildTrend(siteID, days, list))
}

// exportRows loads the readings selected by the siteId and limit query
// parameters. Exports default to the maximum page size.
func (h *Handler) exportRows(r *http.Request) (string, []models.Reading, error) {
	limit, err := intParam(r, "limit", readings.MaxLimit)
	if err != nil {
		return "", nil, err
	}
	siteID := strings.TrimSpace(r.URL.Query().Get("siteId"))
	list, err := h.queries.ListRecent(r.Context(), limit, siteID)
	if err != nil {
		return "", nil, err
	}
	name := "readings"
	if siteID != "" {
		name = "readings_" + siteID
	}
	return name, list, nil
}

// ExportXLSX downloads readings as an Excel workbook
// @Summary Export readings to Excel
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param siteId query string false "Only readings of this site"
// @Param limit query int false "Maximum number of readings (max 500)"
// @Success 200 {file} binary
// @Router /export/readings.xlsx [get]
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	name, list, err := h.exportRows(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.now()
	buffer, err := dashboard.ExportXLSX("River gauge readings", list, now)
	if err != nil {
		log.WithError(err).Error("failed to generate Excel file")
		writeError(w, r, err)
		return
	}

	filename := dashboard.ExportFilename(name, "xlsx", now)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

// ExportCSV downloads readings as CSV
// @Summary Export readings to CSV
// @Tags export
// @Produce text/csv
// @Param siteId query string false "Only readings of this site"
// @Param limit query int false "Maximum number of readings (max 500)"
// @Success 200 {file} binary
// @Router /export/readings.csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	name, list, err := h.exportRows(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	csvData, err := dashboard.ExportCSV(list)
	if err != nil {
		log.WithError(err).Error("failed to generate CSV file")
		writeError(w, r, err)
		return
	}

	filename := dashboard.ExportFilename(name, "csv", h.now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(csvData)))
	w.WriteHeader(http.StatusOK)
	w.Write(csvData)
}
