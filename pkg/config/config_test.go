package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/hass"
)

const sample = `
type: custom:pika-chart-card
title: Climate
chart_type: area
entities:
  - entity: sensor.temperature
    name: Temperature
    color: "#ff6384"
  - entity: sensor.humidity
    yaxis_id: "2"
    type: line
    show:
      in_chart: false
  - entity: sensor.energy
    statistics:
      stat_type: max
      period: day
span: 2d
refresh_interval: "90"
yaxis:
  - label: "°C"
    min: 0
    max: auto
  - id: "2"
    opposite: true
    show: false
`

func TestParseAppliesDefaults(t *testing.T) {
	card, err := Parse(strings.NewReader(sample), "yaml")
	require.NoError(t, err)

	assert.Equal(t, core.TypeArea, card.Chart())
	assert.Equal(t, DefaultLibrary, card.Library)
	assert.Equal(t, DefaultHeight, card.Height)
	assert.True(t, card.ShowLegend)
	assert.True(t, card.Animate)
	assert.Equal(t, ThemeAuto, card.Theme)
	require.Len(t, card.Entities, 3)

	window, err := card.Window()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, window)

	refresh, err := card.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, refresh)

	humidity := card.Entities[1]
	assert.Equal(t, "y2", humidity.SeriesAxisID())
	assert.False(t, humidity.InChart())
	assert.Equal(t, "y", card.Entities[0].SeriesAxisID())
	assert.True(t, card.Entities[0].InChart())

	stats := card.Entities[2].Statistics
	require.NotNil(t, stats)
	assert.Equal(t, string(hass.StatMax), stats.StatType)
	assert.Equal(t, string(hass.PeriodDay), stats.Period)
}

func TestAxes(t *testing.T) {
	card, err := Parse(strings.NewReader(sample), "yaml")
	require.NoError(t, err)

	axes := card.Axes()
	require.NotNil(t, axes.Y)
	assert.Equal(t, "°C", axes.Y.Label)
	require.NotNil(t, axes.Y.Min)
	assert.Equal(t, 0.0, *axes.Y.Min)
	assert.Nil(t, axes.Y.Max)

	require.NotNil(t, axes.Y2)
	assert.True(t, axes.Y2.Hidden)
	assert.Nil(t, axes.X)
}

func TestValidation(t *testing.T) {
	cases := map[string]struct {
		yaml string
		err  error
	}{
		"no entities":    {"chart_type: line\n", ErrNoEntities},
		"empty entity":   {"entities:\n  - name: x\n", ErrInvalidEntity},
		"bad chart type": {"chart_type: radialBar\nentities:\n  - entity: sensor.a\n", core.ErrUnknownChartType},
		"radial series":  {"entities:\n  - entity: sensor.a\n    type: pie\n", ErrInvalidEntity},
		"bad stat":       {"entities:\n  - entity: sensor.a\n    statistics:\n      stat_type: median\n", hass.ErrUnknownStatType},
		"bad refresh":    {"refresh_interval: soon\nentities:\n  - entity: sensor.a\n", ErrInvalidDuration},
		"tiny refresh":   {"refresh_interval: \"1e-10\"\nentities:\n  - entity: sensor.a\n", ErrInvalidDuration},
		"bad theme":      {"theme: neon\nentities:\n  - entity: sensor.a\n", ErrInvalidTheme},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.yaml), "yaml")
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDurations(t *testing.T) {
	d, err := parseDuration("1d", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	d, err = parseDuration("1.5", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = parseDuration("0", time.Second)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = parseDuration("1e-10", time.Second)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	tiny := Default()
	tiny.HoursToShow = 1e-15
	_, err = tiny.Window()
	assert.ErrorIs(t, err, ErrInvalidDuration)

	card := Default()
	card.HoursToShow = 6
	w, err := card.Window()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, w)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	t.Setenv("PIKACHART_LIBRARY", "svg")
	card, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "svg", card.Library)
	assert.Equal(t, "Climate", card.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStubRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Stub()))
	assert.Contains(t, buf.String(), "sensor.temperature")

	card, err := Parse(&buf, "yaml")
	require.NoError(t, err)
	assert.Equal(t, "Temperature", card.Entities[0].Name)
	assert.Equal(t, "#ff6384", card.Entities[0].Color)
}
