package dashboard

import (
	"time"

	"github.com/paulmach/orb/geojson"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/sites"
)

// MapFeatures renders the live map layer: one marker per site at its
// registered location, carrying the latest reading when there is one,
// plus one marker per latest reading at the position it was taken from.
func MapFeatures(registry *sites.Registry, latest []models.Reading) *geojson.FeatureCollection {
	bySite := make(map[string]models.Reading, len(latest))
	for _, r := range latest {
		bySite[r.SiteID] = r
	}

	fc := sites.FeatureCollection(registry.All())
	for _, f := range fc.Features {
		f.Properties["kind"] = "site"
		id, _ := f.ID.(string)
		r, ok := bySite[id]
		if !ok {
			f.Properties["status"] = "no-data"
			continue
		}
		f.Properties["status"] = readingStatus(r)
		f.Properties["latestWaterLevelMeters"] = r.WaterLevelMeters
		f.Properties["latestReadingAt"] = r.CreatedAt.UTC().Format(time.RFC3339)
	}

	for _, r := range latest {
		f := geojson.NewFeature(r.Location().Point())
		f.ID = r.ID
		f.Properties["kind"] = "reading"
		f.Properties["siteId"] = r.SiteID
		f.Properties["siteName"] = r.SiteName
		f.Properties["waterLevelMeters"] = r.WaterLevelMeters
		f.Properties["distanceFromSiteMeters"] = r.DistanceFromSiteMeters
		f.Properties["isVerified"] = r.IsVerified
		f.Properties["submittedBy"] = r.SubmittedBy
		f.Properties["photoId"] = r.PhotoID
		f.Properties["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339)
		f.Properties["status"] = readingStatus(r)
		fc.Append(f)
	}

	return fc
}

func readingStatus(r models.Reading) string {
	if r.IsVerified {
		return "verified"
	}
	return "unverified"
}
