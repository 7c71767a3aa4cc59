package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/hass"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, r *Recorder, entityID string, states ...string) {
	t.Helper()
	changes := make([]hass.StateChange, len(states))
	for i, s := range states {
		changes[i] = hass.StateChange{State: s, LastChanged: t0.Add(time.Duration(i) * 20 * time.Minute)}
	}
	require.NoError(t, r.RecordMany(context.Background(), entityID, changes))
}

func TestHistoryRange(t *testing.T) {
	r, err := FromMemory()
	require.NoError(t, err)
	defer r.Close()

	seed(t, r, "sensor.temp", "20", "21", "22", "23")
	seed(t, r, "sensor.temp_2", "99")

	changes, err := r.History(context.Background(), "sensor.temp", t0.Add(20*time.Minute), t0.Add(60*time.Minute))
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "21", changes[0].State)
	assert.Equal(t, "22", changes[1].State)

	all, err := r.History(context.Background(), "sensor.temp", t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStatistics(t *testing.T) {
	r, err := FromMemory()
	require.NoError(t, err)
	defer r.Close()

	// 00:00 00:20 00:40 | 01:00 01:20
	seed(t, r, "sensor.power", "1", "unavailable", "5", "10", "20")

	stats, err := r.Statistics(context.Background(), "sensor.power", t0, t0.Add(2*time.Hour), hass.PeriodHour)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	first := stats[0]
	assert.True(t, first.Start.Equal(t0))
	assert.Equal(t, 3.0, *first.Mean)
	assert.Equal(t, 1.0, *first.Min)
	assert.Equal(t, 5.0, *first.Max)
	assert.Equal(t, 6.0, *first.Sum)
	assert.Equal(t, 5.0, *first.State)

	second := stats[1]
	assert.True(t, second.Start.Equal(t0.Add(time.Hour)))
	assert.Equal(t, 15.0, *second.Mean)

	points := hass.StatisticPoints(stats, hass.StatMax)
	require.Len(t, points, 2)
	assert.Equal(t, 20.0, points[1].Y)
}

func TestStatesLatest(t *testing.T) {
	r, err := FromMemory()
	require.NoError(t, err)
	defer r.Close()

	seed(t, r, "sensor.a", "1", "2")
	require.NoError(t, r.Record(context.Background(), "sensor.b", hass.StateChange{
		State:       "on",
		Attributes:  map[string]any{hass.AttrFriendlyName: "Lamp"},
		LastChanged: t0,
	}))

	states, err := r.States(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "2", states["sensor.a"].State)
	assert.Equal(t, "Lamp", hass.FriendlyName(states["sensor.b"]))
}

func TestInvalidEntity(t *testing.T) {
	r, err := FromMemory()
	require.NoError(t, err)
	defer r.Close()

	err = r.Record(context.Background(), "bad:id", hass.StateChange{State: "1", LastChanged: t0})
	assert.ErrorIs(t, err, ErrInvalidEntity)
	_, err = r.History(context.Background(), "", t0, t0)
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestCanceledContext(t *testing.T) {
	r, err := FromMemory()
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.History(ctx, "sensor.a", t0, t0.Add(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	r, err := FromFile(path)
	require.NoError(t, err)
	seed(t, r, "sensor.temp", "20", "21")
	require.NoError(t, r.Close())

	r, err = FromFile(path)
	require.NoError(t, err)
	defer r.Close()

	changes, err := r.History(context.Background(), "sensor.temp", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}
