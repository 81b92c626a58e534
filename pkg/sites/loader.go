package sites

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/utils"
)

// siteRecord is the on-disk form of a site in a JSON sites file.
type siteRecord struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
	VerificationRadiusMeters float64 `json:"verificationRadiusMeters"`
}

// LoadFile reads a sites file and builds a registry from it. The format
// is chosen by extension: .json, .kml or .kmz. An empty path yields the
// default sites.
func LoadFile(path string, defaultRadius float64) (*Registry, error) {
	if path == "" {
		return NewRegistry(withDefaultRadius(DefaultSites(), defaultRadius)...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var list []models.Site
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		list, err = ParseJSON(data)
	case ".kml":
		list, err = NewKMZParser().SitesFromKML(data)
	case ".kmz":
		list, err = NewKMZParser().SitesFromKMZ(data)
	default:
		return nil, fmt.Errorf("unsupported sites file format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sites file %s: %w", path, err)
	}

	return NewRegistry(withDefaultRadius(list, defaultRadius)...)
}

// ParseJSON parses a JSON array of site records.
func ParseJSON(data []byte) ([]models.Site, error) {
	var records []siteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid sites JSON: %w", err)
	}

	list := make([]models.Site, 0, len(records))
	for _, rec := range records {
		list = append(list, models.Site{
			ID:                       rec.ID,
			Name:                     rec.Name,
			Location:                 coord(rec.Latitude, rec.Longitude),
			VerificationRadiusMeters: rec.VerificationRadiusMeters,
		})
	}
	return list, nil
}

func withDefaultRadius(list []models.Site, radius float64) []models.Site {
	if radius <= 0 {
		return list
	}
	for i := range list {
		if list[i].VerificationRadiusMeters == 0 {
			list[i].VerificationRadiusMeters = radius
		}
	}
	return list
}

func coord(lat, lng float64) utils.Coordinate {
	return utils.Coordinate{Lat: lat, Lng: lng}
}
