package utils

import (
	"math"
	"sort"
	"time"
)

// AnalyticsEngine provides statistical functions for water-level series
type AnalyticsEngine struct{}

// NewAnalyticsEngine creates a new analytics engine
func NewAnalyticsEngine() *AnalyticsEngine {
	return &AnalyticsEngine{}
}

// TimeSeriesData represents one point of a time series
type TimeSeriesData struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Label     string    `json:"label,omitempty"`
}

// LevelChange compares the latest value against the previous one
type LevelChange struct {
	CurrentValue  float64 `json:"currentValue"`
	PreviousValue float64 `json:"previousValue"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Trend         string  `json:"trend"` // rising, falling, stable
}

// StatisticalSummary provides statistical analysis
type StatisticalSummary struct {
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Range    float64 `json:"range"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stdDev"`
	Q1       float64 `json:"q1"`  // First quartile
	Q3       float64 `json:"q3"`  // Third quartile
	IQR      float64 `json:"iqr"` // Interquartile range
}

// CalculateChange calculates the change between two consecutive levels.
// Differences below tolerance count as stable.
func (ae *AnalyticsEngine) CalculateChange(currentValue, previousValue, tolerance float64) *LevelChange {
	c := &LevelChange{
		CurrentValue:  currentValue,
		PreviousValue: previousValue,
		Change:        currentValue - previousValue,
	}

	if previousValue != 0 {
		c.ChangePercent = (c.Change / math.Abs(previousValue)) * 100
	}

	switch {
	case c.Change > tolerance:
		c.Trend = "rising"
	case c.Change < -tolerance:
		c.Trend = "falling"
	default:
		c.Trend = "stable"
	}

	return c
}

// CalculateStatistics calculates comprehensive statistical summary
func (ae *AnalyticsEngine) CalculateStatistics(values []float64) *StatisticalSummary {
	if len(values) == 0 {
		return nil
	}

	// Sort values for median, quartiles
	sortedValues := make([]float64, len(values))
	copy(sortedValues, values)
	sort.Float64s(sortedValues)

	summary := &StatisticalSummary{
		Count: len(values),
	}

	for _, v := range values {
		summary.Sum += v
	}
	summary.Mean = summary.Sum / float64(summary.Count)

	summary.Min = sortedValues[0]
	summary.Max = sortedValues[len(sortedValues)-1]
	summary.Range = summary.Max - summary.Min

	summary.Median = ae.calculateMedian(sortedValues)

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - summary.Mean
		sumSquaredDiff += diff * diff
	}
	summary.Variance = sumSquaredDiff / float64(summary.Count)
	summary.StdDev = math.Sqrt(summary.Variance)

	summary.Q1 = ae.calculatePercentile(sortedValues, 25)
	summary.Q3 = ae.calculatePercentile(sortedValues, 75)
	summary.IQR = summary.Q3 - summary.Q1

	return summary
}

// CalculateMovingAverage calculates moving average for smoothing trends
func (ae *AnalyticsEngine) CalculateMovingAverage(timeSeries []TimeSeriesData, window int) []TimeSeriesData {
	if window <= 0 || len(timeSeries) < window {
		return timeSeries
	}

	result := []TimeSeriesData{}

	for i := window - 1; i < len(timeSeries); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += timeSeries[j].Value
		}

		result = append(result, TimeSeriesData{
			Timestamp: timeSeries[i].Timestamp,
			Label:     timeSeries[i].Label,
			Value:     sum / float64(window),
		})
	}

	return result
}

// DetectOutliers returns the points outside the 1.5×IQR fences.
func (ae *AnalyticsEngine) DetectOutliers(timeSeries []TimeSeriesData) []TimeSeriesData {
	if len(timeSeries) < 4 {
		return nil
	}

	values := make([]float64, len(timeSeries))
	for i, p := range timeSeries {
		values[i] = p.Value
	}
	s := ae.CalculateStatistics(values)
	low := s.Q1 - 1.5*s.IQR
	high := s.Q3 + 1.5*s.IQR

	var out []TimeSeriesData
	for _, p := range timeSeries {
		if p.Value < low || p.Value > high {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions

func (ae *AnalyticsEngine) calculateMedian(sortedValues []float64) float64 {
	n := len(sortedValues)
	if n%2 == 0 {
		return (sortedValues[n/2-1] + sortedValues[n/2]) / 2
	}
	return sortedValues[n/2]
}

func (ae *AnalyticsEngine) calculatePercentile(sortedValues []float64, percentile float64) float64 {
	if percentile <= 0 {
		return sortedValues[0]
	}
	if percentile >= 100 {
		return sortedValues[len(sortedValues)-1]
	}

	index := (percentile / 100) * float64(len(sortedValues)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sortedValues[lower]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
