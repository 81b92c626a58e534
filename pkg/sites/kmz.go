package sites

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/utils"
)

// KML structures, reduced to what a site placemark carries.
type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlExtendedData struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
	SchemaData []struct {
		SimpleData []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:",chardata"`
		} `xml:"SimpleData"`
	} `xml:"SchemaData"`
}

type kmlPlacemark struct {
	ID           string           `xml:"id,attr"`
	Name         string           `xml:"name"`
	ExtendedData *kmlExtendedData `xml:"ExtendedData"`
	Point        *kmlPoint        `xml:"Point"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDocument struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Document kmlDocument `xml:"Document"`
}

// KMZParser reads site placemarks out of KML/KMZ exports from GIS tools.
// Only Point placemarks become sites; lines and polygons are ignored.
type KMZParser struct{}

// NewKMZParser creates a new KMZ parser instance
func NewKMZParser() *KMZParser {
	return &KMZParser{}
}

// ExtractKML extracts KML content from KMZ file
func (p *KMZParser) ExtractKML(kmzData []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(kmzData), int64(len(kmzData)))
	if err != nil {
		return nil, fmt.Errorf("failed to open KMZ archive: %w", err)
	}

	for _, f := range reader.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open KML file: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	return nil, fmt.Errorf("no KML file found in KMZ archive")
}

// SitesFromKMZ unpacks a KMZ archive and parses its site placemarks.
func (p *KMZParser) SitesFromKMZ(kmzData []byte) ([]models.Site, error) {
	kml, err := p.ExtractKML(kmzData)
	if err != nil {
		return nil, err
	}
	return p.SitesFromKML(kml)
}

// SitesFromKML parses site placemarks from KML XML, depth first through
// folders, keeping document order.
func (p *KMZParser) SitesFromKML(kmlData []byte) ([]models.Site, error) {
	var root kmlRoot
	if err := xml.Unmarshal(kmlData, &root); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	var list []models.Site
	collect := func(pms []kmlPlacemark) error {
		for i := range pms {
			site, ok, err := p.placemarkToSite(&pms[i])
			if err != nil {
				return err
			}
			if ok {
				list = append(list, site)
			}
		}
		return nil
	}

	if err := collect(root.Document.Placemarks); err != nil {
		return nil, err
	}
	var walk func(folders []kmlFolder) error
	walk = func(folders []kmlFolder) error {
		for i := range folders {
			if err := collect(folders[i].Placemarks); err != nil {
				return err
			}
			if err := walk(folders[i].Folders); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root.Document.Folders); err != nil {
		return nil, err
	}

	return list, nil
}

// ParsePoint parses a KML "lon,lat[,ele]" coordinate tuple.
func (p *KMZParser) ParsePoint(s string) (orb.Point, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return orb.Point{}, fmt.Errorf("empty coordinates")
	}
	parts := strings.Split(fields[0], ",")
	if len(parts) < 2 {
		return orb.Point{}, fmt.Errorf("malformed coordinates %q", fields[0])
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
	}
	return orb.Point{lon, lat}, nil
}

// ExtractProperties extracts properties from ExtendedData
func (p *KMZParser) ExtractProperties(pm *kmlPlacemark) map[string]string {
	props := map[string]string{}
	if pm.ExtendedData == nil {
		return props
	}
	for _, data := range pm.ExtendedData.Data {
		props[data.Name] = strings.TrimSpace(data.Value)
	}
	for _, schemaData := range pm.ExtendedData.SchemaData {
		for _, simpleData := range schemaData.SimpleData {
			props[simpleData.Name] = strings.TrimSpace(simpleData.Value)
		}
	}
	return props
}

func (p *KMZParser) placemarkToSite(pm *kmlPlacemark) (models.Site, bool, error) {
	if pm.Point == nil {
		return models.Site{}, false, nil
	}

	pt, err := p.ParsePoint(pm.Point.Coordinates)
	if err != nil {
		return models.Site{}, false, fmt.Errorf("placemark %q: %w", pm.Name, err)
	}

	props := p.ExtractProperties(pm)
	id := firstNonEmpty(props["siteId"], props["id"], props["code"], pm.ID)
	if id == "" {
		return models.Site{}, false, fmt.Errorf("placemark %q has no site id", pm.Name)
	}

	site := models.Site{
		ID:       id,
		Name:     strings.TrimSpace(pm.Name),
		Location: utils.FromPoint(pt),
	}
	if raw := firstNonEmpty(props["verificationRadiusMeters"], props["radius"]); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Site{}, false, fmt.Errorf("placemark %q: invalid radius %q", pm.Name, raw)
		}
		site.VerificationRadiusMeters = radius
	}

	return site, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
