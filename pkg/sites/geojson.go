package sites

import (
	"github.com/paulmach/orb/geojson"
	"p9e.in/gaugewatch/models"
)

// FeatureCollection renders sites as GeoJSON points for map layers.
func FeatureCollection(list []models.Site) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, site := range list {
		f := geojson.NewFeature(site.Location.Point())
		f.ID = site.ID
		f.Properties["id"] = site.ID
		f.Properties["name"] = site.Name
		f.Properties["verificationRadiusMeters"] = site.VerificationRadiusMeters
		fc.Append(f)
	}
	return fc
}
