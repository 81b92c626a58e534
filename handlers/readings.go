package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/mux"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/readings"
	"p9e.in/gaugewatch/utils"
)

// SubmitReading accepts a gauge photo with its water level and location
// @Summary Submit a water-level reading
// @Description Multipart upload. The site is taken from siteId when given, otherwise the nearest site is used. The reading is verified when the device was inside the site's radius.
// @Tags readings
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Gauge photo"
// @Param siteId formData string false "Site id"
// @Param waterLevel formData number true "Water level in meters"
// @Param latitude formData number true "Device latitude"
// @Param longitude formData number true "Device longitude"
// @Param accuracy formData number false "GPS accuracy in meters"
// @Param submittedBy formData string false "Field officer"
// @Param ocrConfidence formData number false "OCR confidence 0..1"
// @Success 201 {object} models.Reading
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /readings [post]
func (h *Handler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, r, invalidParam("multipart form", err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, invalidParam("photo", "missing"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, invalidParam("photo", err.Error()))
		return
	}

	level, err := readings.ParseWaterLevel(r.FormValue("waterLevel"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	location, err := formCoordinate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var ocr *float64
	if raw := strings.TrimSpace(r.FormValue("ocrConfidence")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, invalidParam("ocrConfidence", raw))
			return
		}
		ocr = &v
	}

	var accuracy float64
	if raw := strings.TrimSpace(r.FormValue("accuracy")); raw != "" {
		if accuracy, err = strconv.ParseFloat(raw, 64); err != nil || accuracy < 0 {
			writeError(w, r, invalidParam("accuracy", raw))
			return
		}
	}

	// the distance is computed once here and carried into the reading
	var resolved models.ResolvedSite
	if siteID := strings.TrimSpace(r.FormValue("siteId")); siteID != "" {
		resolved, err = h.resolver.Resolve(siteID, location)
	} else {
		resolved, err = h.resolver.Nearest(location)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	candidate := readings.NewCandidate(resolved, level, location, r.FormValue("submittedBy"), readings.Photo{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	})
	candidate.OCRConfidence = ocr
	candidate.Device = deviceInfo(r, accuracy)

	reading, err := h.submissions.Submit(r.Context(), candidate)
	if err != nil {
		var partial *readings.PartialSubmissionError
		if errors.As(err, &partial) {
			log.WithField("photo", partial.PhotoID).Error("submission left an orphaned photo")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, reading)
}

func deviceInfo(r *http.Request, accuracy float64) map[string]interface{} {
	device := map[string]interface{}{}
	if accuracy > 0 {
		device["gpsAccuracyMeters"] = accuracy
	}
	if ua := r.UserAgent(); ua != "" {
		device["userAgent"] = ua
	}
	return device
}

func formCoordinate(r *http.Request) (utils.Coordinate, error) {
	latRaw := strings.TrimSpace(r.FormValue("latitude"))
	lngRaw := strings.TrimSpace(r.FormValue("longitude"))
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return utils.Coordinate{}, invalidParam("latitude", latRaw)
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return utils.Coordinate{}, invalidParam("longitude", lngRaw)
	}
	c, err := utils.NewCoordinate(lat, lng)
	if err != nil {
		return utils.Coordinate{}, invalidParam("latitude/longitude", latRaw+","+lngRaw)
	}
	return c, nil
}

// ListReadings returns the newest readings
// @Summary List recent readings
// @Tags readings
// @Produce json
// @Param limit query int false "Maximum number of readings (default 20, max 500)"
// @Param siteId query string false "Only readings of this site"
// @Success 200 {array} models.Reading
// @Failure 503 {object} ErrorResponse
// @Router /readings [get]
func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", readings.DefaultLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.queries.ListRecent(r.Context(), limit, r.URL.Query().Get("siteId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetReading returns one reading
// @Summary Get a reading
// @Tags readings
// @Produce json
// @Param id path string true "Reading id"
// @Success 200 {object} models.Reading
// @Failure 404 {object} ErrorResponse
// @Router /readings/{id} [get]
func (h *Handler) GetReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.queries.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// GetReadingPhoto streams the gauge photo of a reading
// @Summary Get the photo of a reading
// @Tags readings
// @Produce image/jpeg,image/png
// @Param id path string true "Reading id"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /readings/{id}/photo [get]
func (h *Handler) GetReadingPhoto(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.queries.OpenPhoto(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		log.WithError(err).Warn("photo stream interrupted")
	}
}

// ListSiteReadings returns the readings of one site
// @Summary List readings of a site
// @Tags readings
// @Produce json
// @Param id path string true "Site id"
// @Param limit query int false "Maximum number of readings"
// @Param days query int false "Only readings from the last N days (max 3650)"
// @Param since query string false "Only readings created at or after this RFC3339 time; overrides days"
// @Success 200 {array} models.Reading
// @Failure 400 {object} ErrorResponse
// @Router /sites/{id}/readings [get]
func (h *Handler) ListSiteReadings(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", readings.DefaultLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := daysParam(r, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var since time.Time
	if days > 0 {
		since = h.now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		if since, err = models.ParseTimestamp(raw); err != nil {
			writeError(w, r, invalidParam("since", raw))
			return
		}
	}

	list, err := h.queries.ListBySiteSince(r.Context(), mux.Vars(r)["id"], since, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAlerts returns every unverified reading
// @Summary List alerts
// @Description Readings submitted from outside the site's verification radius, newest first
// @Tags readings
// @Produce json
// @Success 200 {array} models.Reading
// @Router /alerts [get]
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := h.queries.ListUnverified(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
