package dashboard

import (
	"sort"

	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/utils"
)

const (
	// DefaultTrendDays is the look-back window of the site detail page.
	DefaultTrendDays = 7
	// trendWindow is the moving-average window in readings.
	trendWindow = 3
	// stableToleranceMeters is the change below which a level counts as stable.
	stableToleranceMeters = 0.01
)

// Trend is the water-level history of one site.
type Trend struct {
	SiteID        string                    `json:"siteId"`
	Days          int                       `json:"days"`
	Points        []utils.TimeSeriesData    `json:"points"`
	MovingAverage []utils.TimeSeriesData    `json:"movingAverage"`
	Statistics    *utils.StatisticalSummary `json:"statistics,omitempty"`
	Change        *utils.LevelChange        `json:"change,omitempty"`
	Outliers      []utils.TimeSeriesData    `json:"outliers,omitempty"`
}

// BuildTrend turns readings of one site (any order) into a chronological
// series with summary statistics.
func BuildTrend(siteID string, days int, list []models.Reading) *Trend {
	sorted := make([]models.Reading, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	points := make([]utils.TimeSeriesData, 0, len(sorted))
	values := make([]float64, 0, len(sorted))
	for _, r := range sorted {
		label := "unverified"
		if r.IsVerified {
			label = "verified"
		}
		points = append(points, utils.TimeSeriesData{
			Timestamp: r.CreatedAt,
			Value:     r.WaterLevelMeters,
			Label:     label,
		})
		values = append(values, r.WaterLevelMeters)
	}

	ae := utils.NewAnalyticsEngine()
	t := &Trend{
		SiteID:        siteID,
		Days:          days,
		Points:        points,
		MovingAverage: ae.CalculateMovingAverage(points, trendWindow),
		Statistics:    ae.CalculateStatistics(values),
		Outliers:      ae.DetectOutliers(points),
	}
	if n := len(values); n >= 2 {
		t.Change = ae.CalculateChange(values[n-1], values[n-2], stableToleranceMeters)
	}
	return t
}
