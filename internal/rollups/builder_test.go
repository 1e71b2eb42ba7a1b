package rollups_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/config"
	"sitepulse/internal/rollups"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
	"sitepulse/internal/tracking"
)

func enabledConfig() *config.Config {
	return &config.Config{RollupEnabled: true}
}

func TestBuildDay(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	builder := rollups.NewBuilder(db, enabledConfig(), testsupport.GetLogger())

	t0 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	visit := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: t0, LandingPath: "/home"})
	testsupport.CreateTestPageView(t, db, visit.ID, "/home", testsupport.Int64Ptr(2000), t0)
	testsupport.CreateTestPageView(t, db, visit.ID, "/home", testsupport.Int64Ptr(4000), t0.Add(time.Minute))

	paths, err := builder.BuildDay(t0)
	require.NoError(t, err)
	assert.Equal(t, 1, paths)

	var rollup rollups.DailyRollup
	require.NoError(t, db.Where("path = ?", "/home").First(&rollup).Error)
	assert.True(t, rollup.Date.UTC().Equal(rollups.Day(t0)))
	assert.Equal(t, int64(2), rollup.Pageviews)
	assert.Equal(t, int64(1), rollup.UniqueVisitors)
	assert.Equal(t, 3000.0, rollup.AvgDurationMs)
	assert.Equal(t, int64(1), rollup.Sessions)
	assert.Equal(t, int64(0), rollup.Conversions)
}

func TestBuildDayIsIdempotent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	builder := rollups.NewBuilder(db, enabledConfig(), testsupport.GetLogger())

	t0 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	visit := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: t0, LandingPath: "/home"})
	testsupport.CreateTestPageView(t, db, visit.ID, "/home", testsupport.Int64Ptr(2000), t0)

	_, err := builder.BuildDay(t0)
	require.NoError(t, err)
	_, err = builder.BuildDay(t0)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&rollups.DailyRollup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var rollup rollups.DailyRollup
	require.NoError(t, db.First(&rollup).Error)
	assert.Equal(t, int64(1), rollup.Pageviews)
}

func TestBuildDayCountsConversionsByPath(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	builder := rollups.NewBuilder(db, enabledConfig(), testsupport.GetLogger())

	t0 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	visit := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: t0, LandingPath: "/signup"})
	testsupport.CreateTestPageView(t, db, visit.ID, "/signup", nil, t0)
	testsupport.CreateTestEvent(t, db, visit.ID, "conversion", "signup", "", "/signup", t0)
	testsupport.CreateTestEvent(t, db, visit.ID, "click", "cta", "", "/signup", t0)

	_, err := builder.BuildDay(t0)
	require.NoError(t, err)

	var rollup rollups.DailyRollup
	require.NoError(t, db.Where("path = ?", "/signup").First(&rollup).Error)
	assert.Equal(t, int64(1), rollup.Conversions)
	assert.Equal(t, int64(1), rollup.Sessions)
}

func TestBuildDayDisabled(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	cfg := &config.Config{RollupEnabled: false}
	builder := rollups.NewBuilder(db, cfg, testsupport.GetLogger())

	t0 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	visit := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: t0})
	testsupport.CreateTestPageView(t, db, visit.ID, "/home", nil, t0)

	paths, err := builder.BuildDay(t0)
	require.NoError(t, err)
	assert.Equal(t, 0, paths)

	var count int64
	require.NoError(t, db.Model(&rollups.DailyRollup{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBuildDayEmptyDay(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	builder := rollups.NewBuilder(db, enabledConfig(), testsupport.GetLogger())

	paths, err := builder.BuildDay(time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, paths)
}

func TestBuildRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	builder := rollups.NewBuilder(db, enabledConfig(), testsupport.GetLogger())

	day1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)

	v1 := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: day1, LandingPath: "/a"})
	testsupport.CreateTestPageView(t, db, v1.ID, "/a", nil, day1)
	v3 := testsupport.CreateTestVisit(t, db, tracking.Visit{StartedAt: day3, LandingPath: "/b"})
	testsupport.CreateTestPageView(t, db, v3.ID, "/b", nil, day3)

	total, err := builder.BuildRange(context.Background(), day1, day3)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	var dates []time.Time
	require.NoError(t, db.Model(&rollups.DailyRollup{}).Order("date ASC").Pluck("date", &dates).Error)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].UTC().Equal(rollups.Day(day1)))
	assert.True(t, dates[1].UTC().Equal(rollups.Day(day3)))
}

func TestCovers(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	cfg := enabledConfig()

	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	r := timeframe.DateRange{Start: start, End: start.AddDate(0, 0, 2), Key: "custom"}

	t.Run("no rollups", func(t *testing.T) {
		covered, err := rollups.Covers(db, cfg, r)
		require.NoError(t, err)
		assert.False(t, covered)
	})

	t.Run("partial coverage", func(t *testing.T) {
		require.NoError(t, db.Create(&rollups.DailyRollup{Date: start, Path: "/"}).Error)
		covered, err := rollups.Covers(db, cfg, r)
		require.NoError(t, err)
		assert.False(t, covered)
	})

	t.Run("full coverage", func(t *testing.T) {
		require.NoError(t, db.Create(&rollups.DailyRollup{Date: start.AddDate(0, 0, 1), Path: "/"}).Error)
		covered, err := rollups.Covers(db, cfg, r)
		require.NoError(t, err)
		assert.True(t, covered)
	})

	t.Run("disabled flag", func(t *testing.T) {
		covered, err := rollups.Covers(db, &config.Config{RollupEnabled: false}, r)
		require.NoError(t, err)
		assert.False(t, covered)
	})
}
