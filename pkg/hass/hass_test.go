package hass

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/core"
)

func f(v float64) *float64 { return &v }

func TestHistoryPoints(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	changes := []StateChange{
		{State: "21.5", LastChanged: t0},
		{State: StateUnknown, LastChanged: t0.Add(time.Minute)},
		{State: StateUnavailable, LastChanged: t0.Add(2 * time.Minute)},
		{State: "on", LastChanged: t0.Add(3 * time.Minute)},
		{State: "NaN", LastChanged: t0.Add(4 * time.Minute)},
		{State: "22", LastChanged: t0.Add(5 * time.Minute)},
	}

	points := HistoryPoints(changes, "")
	require.Len(t, points, 2)
	assert.Equal(t, 21.5, points[0].Y)
	assert.True(t, points[0].X.Equal(core.Time(t0)))
	assert.Equal(t, 22.0, points[1].Y)
}

func TestHistoryPointsAttribute(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	changes := []StateChange{
		{State: "heat", Attributes: map[string]any{"current_temperature": 19.0}, LastChanged: t0},
		{State: "heat", Attributes: map[string]any{"current_temperature": "20.5"}, LastChanged: t0.Add(time.Hour)},
		{State: "heat", Attributes: map[string]any{}, LastChanged: t0.Add(2 * time.Hour)},
		{State: "heat", Attributes: map[string]any{"current_temperature": true}, LastChanged: t0.Add(3 * time.Hour)},
	}

	points := HistoryPoints(changes, "current_temperature")
	require.Len(t, points, 2)
	assert.Equal(t, 19.0, points[0].Y)
	assert.Equal(t, 20.5, points[1].Y)
}

func TestStatisticPoints(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := []Statistic{
		{Start: t0, Min: f(1), Max: f(3), Mean: f(2)},
		{Start: t0.Add(time.Hour), Mean: f(5)},
		{Start: t0.Add(2 * time.Hour), State: f(7)},
		{Start: t0.Add(3 * time.Hour)},
	}

	maxes := StatisticPoints(stats, StatMax)
	require.Len(t, maxes, 3)
	assert.Equal(t, []float64{3, 5, 7}, []float64{maxes[0].Y, maxes[1].Y, maxes[2].Y})

	means := StatisticPoints(stats, StatMean)
	require.Len(t, means, 3)
	assert.Equal(t, 2.0, means[0].Y)
}

func TestParse(t *testing.T) {
	st, err := ParseStatType("")
	require.NoError(t, err)
	assert.Equal(t, StatMean, st)
	_, err = ParseStatType("median")
	assert.ErrorIs(t, err, ErrUnknownStatType)

	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodHour, p)
	_, err = ParsePeriod("week")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestPeriodBuckets(t *testing.T) {
	ts := time.Date(2024, 3, 15, 13, 47, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC), Period5Minute.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC), PeriodHour.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), PeriodDay.Truncate(ts))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Truncate(ts))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), PeriodMonth.Next(PeriodMonth.Truncate(ts)))
}

func TestFriendlyName(t *testing.T) {
	assert.Equal(t, "Kitchen", FriendlyName(Entity{EntityID: "sensor.k", Attributes: map[string]any{AttrFriendlyName: "Kitchen"}}))
	assert.Equal(t, "sensor.k", FriendlyName(Entity{EntityID: "sensor.k"}))
	assert.Equal(t, "°C", Unit(Entity{Attributes: map[string]any{AttrUnit: "°C"}}))
}
