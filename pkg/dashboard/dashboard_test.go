package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/sites"
)

var base = time.Date(2024, 8, 15, 6, 0, 0, 0, time.UTC)

// fakeSource returns readings newest first and counts calls.
type fakeSource struct {
	mu      sync.Mutex
	items   []models.Reading
	calls   int
	failing error
}

func (f *fakeSource) ListRecent(_ context.Context, limit int, _ string) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing != nil {
		return nil, f.failing
	}
	out := append([]models.Reading(nil), f.items...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) ListUnverified(context.Context) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reading
	for _, r := range f.items {
		if !r.IsVerified {
			out = append(out, r)
		}
	}
	return out, nil
}

// newestFirst builds n readings cycling over the given sites.
func newestFirst(n int, siteIDs ...string) []models.Reading {
	out := make([]models.Reading, n)
	for i := 0; i < n; i++ {
		out[i] = models.Reading{
			ID:               fmt.Sprintf("r%02d", n-i),
			SiteID:           siteIDs[i%len(siteIDs)],
			WaterLevelMeters: float64(n - i),
			IsVerified:       i%3 != 0,
			CreatedAt:        base.Add(time.Duration(n-i) * time.Minute),
		}
	}
	return out
}

func TestComputeStats(t *testing.T) {
	recent := []models.Reading{{IsVerified: true}, {IsVerified: false}, {IsVerified: true}}
	unverified := []models.Reading{{}, {}, {}, {}}

	s := ComputeStats(recent, unverified)
	assert.Equal(t, Stats{Total: 3, Verified: 2, Pending: 1, Alerts: 4}, s)
}

func TestLatestPerSite(t *testing.T) {
	list := []models.Reading{
		{ID: "a2", SiteID: "A", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b1", SiteID: "B", CreatedAt: base.Add(time.Minute)},
		{ID: "a1", SiteID: "A", CreatedAt: base},
	}
	got := LatestPerSite(list)
	require.Len(t, got, 2)
	assert.Equal(t, "a2", got[0].ID)
	assert.Equal(t, "b1", got[1].ID)
}

func TestPoller_SnapshotCachesUntilInvalidated(t *testing.T) {
	src := &fakeSource{items: newestFirst(30, "A", "B")}
	var polls int
	p := NewPoller(src, time.Minute,
		WithClock(func() time.Time { return base }),
		WithPollObserver(func(time.Duration, error) { polls++ }),
	)

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Recent, RecentWindow)
	assert.Equal(t, RecentWindow, snap.Stats.Total)
	assert.Equal(t, snap.Stats.Total, snap.Stats.Verified+snap.Stats.Pending)
	assert.Equal(t, 10, snap.Stats.Alerts)
	assert.Len(t, snap.LatestBySite, 2)
	assert.Equal(t, base, snap.GeneratedAt.Time())

	_, err = p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second call must be served from cache")
	assert.Equal(t, 1, polls)

	p.Invalidate()
	_, err = p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

// gatedSource blocks its first ListRecent call until release is closed.
type gatedSource struct {
	*fakeSource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedSource) ListRecent(ctx context.Context, limit int, siteID string) ([]models.Reading, error) {
	out, err := g.fakeSource.ListRecent(ctx, limit, siteID)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return out, err
}

func TestPoller_InvalidateDuringRefresh(t *testing.T) {
	src := &gatedSource{
		fakeSource: &fakeSource{items: newestFirst(3, "A")},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	p := NewPoller(src, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Refresh(context.Background())
	}()

	<-src.entered
	src.mu.Lock()
	src.items = append(newestFirst(1, "B"), src.items...)
	src.mu.Unlock()
	p.ReadingCreated(context.Background(), models.Reading{SiteID: "B"})
	close(src.release)
	<-done

	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "stale refresh must not be cached")
	assert.Equal(t, 4, snap.Stats.Total)
}

func TestPoller_RefreshError(t *testing.T) {
	boom := errors.New("db down")
	src := &fakeSource{failing: boom}
	var lastErr error
	p := NewPoller(src, time.Minute, WithPollObserver(func(_ time.Duration, err error) { lastErr = err }))

	_, err := p.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, lastErr, boom)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	src := &fakeSource{items: newestFirst(3, "A")}
	p := NewPoller(src, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMapFeatures(t *testing.T) {
	reg, err := sites.NewRegistry(sites.DefaultSites()...)
	require.NoError(t, err)

	latest := []models.Reading{{
		ID: "r1", SiteID: "CWC-DL-002", SiteName: "Yamuna Bridge Delhi",
		WaterLevelMeters: 204.3, Latitude: 28.7045, Longitude: 77.1021,
		IsVerified: false, CreatedAt: base,
	}}

	fc := MapFeatures(reg, latest)
	require.Len(t, fc.Features, reg.Len()+1)

	statuses := map[string]string{}
	for _, f := range fc.Features {
		if f.Properties["kind"] == "site" {
			statuses[f.ID.(string)] = f.Properties["status"].(string)
		}
	}
	assert.Equal(t, "unverified", statuses["CWC-DL-002"])
	assert.Equal(t, "no-data", statuses["CWC-WB-001"])

	marker := fc.Features[len(fc.Features)-1]
	assert.Equal(t, "reading", marker.Properties["kind"])
	assert.Equal(t, 77.1021, marker.Point().Lon())

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestBuildTrend(t *testing.T) {
	list := []models.Reading{
		{WaterLevelMeters: 3.0, IsVerified: true, CreatedAt: base.Add(3 * time.Hour)},
		{WaterLevelMeters: 1.0, IsVerified: true, CreatedAt: base.Add(1 * time.Hour)},
		{WaterLevelMeters: 2.0, IsVerified: false, CreatedAt: base.Add(2 * time.Hour)},
		{WaterLevelMeters: 4.0, IsVerified: true, CreatedAt: base.Add(4 * time.Hour)},
	}

	tr := BuildTrend("A", 7, list)
	require.Len(t, tr.Points, 4)
	assert.Equal(t, 1.0, tr.Points[0].Value)
	assert.Equal(t, "unverified", tr.Points[1].Label)
	require.Len(t, tr.MovingAverage, 2)
	assert.InDelta(t, 2.0, tr.MovingAverage[0].Value, 1e-9)
	assert.InDelta(t, 3.0, tr.MovingAverage[1].Value, 1e-9)
	require.NotNil(t, tr.Statistics)
	assert.InDelta(t, 2.5, tr.Statistics.Mean, 1e-9)
	require.NotNil(t, tr.Change)
	assert.Equal(t, "rising", tr.Change.Trend)

	empty := BuildTrend("B", 7, nil)
	assert.Empty(t, empty.Points)
	assert.Nil(t, empty.Statistics)
	assert.Nil(t, empty.Change)
}

func TestExportCSV(t *testing.T) {
	conf := 0.75
	list := []models.Reading{
		{ID: "r1", SiteID: "A", SiteName: "Site, A", WaterLevelMeters: 2.5, IsVerified: true, OCRConfidence: &conf, CreatedAt: base},
		{ID: "r2", SiteID: "B", SiteName: "B", WaterLevelMeters: 1, CreatedAt: base},
	}

	data, err := ExportCSV(list)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Reading ID", records[0][0])
	assert.Equal(t, "Site, A", records[1][2])
	assert.Equal(t, "2.5", records[1][3])
	assert.Equal(t, "true", records[1][7])
	assert.Equal(t, "0.75", records[1][9])
	assert.Equal(t, "", records[2][9])
	assert.Equal(t, "2024-08-15 06:00:00", records[1][10])
}

func TestExportXLSX(t *testing.T) {
	list := newestFirst(4, "A")
	buf, err := ExportXLSX("River readings", list, base)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "River readings", title)

	header, err := f.GetCellValue(exportSheet, "D4")
	require.NoError(t, err)
	assert.Equal(t, "Water Level (m)", header)

	firstID, err := f.GetCellValue(exportSheet, "A5")
	require.NoError(t, err)
	assert.Equal(t, list[0].ID, firstID)

	assert.NotContains(t, f.GetSheetList(), "Sheet1")
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "river_readings_20240815_060000.csv", ExportFilename("river readings", "csv", base))
	assert.Equal(t, "a_b_20240815_060000.xlsx", ExportFilename("a/b", "xlsx", base))
}
