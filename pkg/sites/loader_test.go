package sites

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sitesKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Gauges</name>
    <Placemark id="pm-1">
      <name>Yamuna Bridge Delhi</name>
      <ExtendedData>
        <Data name="siteId"><value>CWC-DL-002</value></Data>
        <Data name="verificationRadiusMeters"><value>150</value></Data>
      </ExtendedData>
      <Point><coordinates>77.1025,28.7041,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>River centerline</name>
      <LineString><coordinates>77.1,28.7 77.2,28.8</coordinates></LineString>
    </Placemark>
    <Folder>
      <name>South</name>
      <Placemark id="CWC-KL-003">
        <name>Periyar River Station</name>
        <Point><coordinates>76.3125,10.0261</coordinates></Point>
      </Placemark>
      <Folder>
        <name>Nested</name>
        <Placemark>
          <name>Hooghly River Kolkata</name>
          <ExtendedData>
            <SchemaData schemaUrl="#gauges">
              <SimpleData name="code">CWC-WB-004</SimpleData>
              <SimpleData name="radius">75</SimpleData>
            </SchemaData>
          </ExtendedData>
          <Point><coordinates>88.3639,22.5726</coordinates></Point>
        </Placemark>
      </Folder>
    </Folder>
  </Document>
</kml>`

func TestSitesFromKML(t *testing.T) {
	list, err := NewKMZParser().SitesFromKML([]byte(sitesKML))
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "CWC-DL-002", list[0].ID)
	assert.Equal(t, "Yamuna Bridge Delhi", list[0].Name)
	assert.Equal(t, 28.7041, list[0].Location.Lat)
	assert.Equal(t, 77.1025, list[0].Location.Lng)
	assert.Equal(t, 150.0, list[0].VerificationRadiusMeters)

	assert.Equal(t, "CWC-KL-003", list[1].ID)
	assert.Equal(t, 0.0, list[1].VerificationRadiusMeters)

	assert.Equal(t, "CWC-WB-004", list[2].ID)
	assert.Equal(t, 75.0, list[2].VerificationRadiusMeters)
}

func TestSitesFromKML_Errors(t *testing.T) {
	p := NewKMZParser()

	_, err := p.SitesFromKML([]byte("not xml"))
	assert.Error(t, err)

	noID := `<kml><Document><Placemark><name>x</name><Point><coordinates>1,2</coordinates></Point></Placemark></Document></kml>`
	_, err = p.SitesFromKML([]byte(noID))
	assert.ErrorContains(t, err, "no site id")

	badCoords := `<kml><Document><Placemark id="a"><Point><coordinates>east,north</coordinates></Point></Placemark></Document></kml>`
	_, err = p.SitesFromKML([]byte(badCoords))
	assert.Error(t, err)
}

func TestSitesFromKMZ(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(sitesKML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	list, err := NewKMZParser().SitesFromKMZ(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = NewKMZParser().SitesFromKMZ([]byte("not a zip"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("DefaultsWhenPathEmpty", func(t *testing.T) {
		r, err := LoadFile("", 120)
		require.NoError(t, err)
		assert.Equal(t, 4, r.Len())
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "sites.json")
		content := `[
			{"id": "G-1", "name": "Gauge One", "latitude": 12.5, "longitude": 77.25},
			{"id": "G-2", "name": "Gauge Two", "latitude": 13, "longitude": 78, "verificationRadiusMeters": 40}
		]`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		r, err := LoadFile(path, 120)
		require.NoError(t, err)
		require.Equal(t, 2, r.Len())

		g1, _ := r.Get("G-1")
		g2, _ := r.Get("G-2")
		assert.Equal(t, 120.0, g1.VerificationRadiusMeters)
		assert.Equal(t, 40.0, g2.VerificationRadiusMeters)
	})

	t.Run("KML", func(t *testing.T) {
		path := filepath.Join(dir, "sites.KML")
		require.NoError(t, os.WriteFile(path, []byte(sitesKML), 0o644))

		r, err := LoadFile(path, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, r.Len())
		s, _ := r.Get("CWC-KL-003")
		assert.Equal(t, 100.0, s.VerificationRadiusMeters)
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		path := filepath.Join(dir, "sites.csv")
		require.NoError(t, os.WriteFile(path, []byte("id,name"), 0o644))
		_, err := LoadFile(path, 100)
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.json"), 100)
		assert.Error(t, err)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
		_, err := LoadFile(path, 100)
		assert.Error(t, err)
	})
}

func TestFeatureCollection(t *testing.T) {
	fc := FeatureCollection(DefaultSites())
	require.Len(t, fc.Features, 4)

	f := fc.Features[1]
	assert.Equal(t, "CWC-DL-002", f.ID)
	assert.Equal(t, "Yamuna Bridge Delhi", f.Properties["name"])
	assert.Equal(t, "Point", f.Geometry.GeoJSONType())

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"coordinates":[77.1025,28.7041]`)
}
