// Package config loads card configuration from YAML files and PIKACHART_*
// environment variables using Viper
package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/hass"
)

// Constants for configuration
const (
	CardType       = "custom:pika-chart-card"
	EnvPrefix      = "PIKACHART"
	DefaultLibrary = "gochart"
	DefaultHeight  = 300
	DefaultHours   = 24
	DefaultRefresh = "60s"
	ThemeAuto      = "auto"
	primaryAxisID  = "y"
	autoBound      = "auto"
)

var (
	ErrNoEntities      = errors.New("please define at least one entity")
	ErrInvalidEntity   = errors.New("invalid entity configuration")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidTheme    = errors.New("invalid theme")
	ErrInvalidHeight   = errors.New("invalid height")
)

// Card is the user-facing card configuration
type Card struct {
	Type            string   `mapstructure:"type" yaml:"type"`
	ChartType       string   `mapstructure:"chart_type" yaml:"chart_type"`
	Library         string   `mapstructure:"library" yaml:"library"`
	Entities        []Entity `mapstructure:"entities" yaml:"entities"`
	HoursToShow     float64  `mapstructure:"hours_to_show" yaml:"hours_to_show"`
	Span            string   `mapstructure:"span" yaml:"span,omitempty"`
	RefreshInterval string   `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	Title           string   `mapstructure:"title" yaml:"title,omitempty"`
	Height          int      `mapstructure:"height" yaml:"height"`
	Stacked         bool     `mapstructure:"stacked" yaml:"stacked"`
	ShowLegend      bool     `mapstructure:"show_legend" yaml:"show_legend"`
	ShowTooltip     bool     `mapstructure:"show_tooltip" yaml:"show_tooltip"`
	ShowGrid        bool     `mapstructure:"show_grid" yaml:"show_grid"`
	Animate         bool     `mapstructure:"animate" yaml:"animate"`
	Theme           string   `mapstructure:"theme" yaml:"theme"`
	YAxis           []Axis   `mapstructure:"yaxis" yaml:"yaxis,omitempty"`
	XAxis           *Axis    `mapstructure:"xaxis" yaml:"xaxis,omitempty"`
}

// Entity configures one data source
type Entity struct {
	Entity     string      `mapstructure:"entity" yaml:"entity"`
	Name       string      `mapstructure:"name" yaml:"name,omitempty"`
	Attribute  string      `mapstructure:"attribute" yaml:"attribute,omitempty"`
	Unit       string      `mapstructure:"unit" yaml:"unit,omitempty"`
	Color      string      `mapstructure:"color" yaml:"color,omitempty"`
	Type       string      `mapstructure:"type" yaml:"type,omitempty"`
	YAxisID    string      `mapstructure:"yaxis_id" yaml:"yaxis_id,omitempty"`
	Statistics *Statistics `mapstructure:"statistics" yaml:"statistics,omitempty"`
	Show       *Show       `mapstructure:"show" yaml:"show,omitempty"`
}

// Statistics switches an entity from raw history to aggregated statistics
type Statistics struct {
	StatType string `mapstructure:"stat_type" yaml:"stat_type"`
	Period   string `mapstructure:"period" yaml:"period,omitempty"`
}

type Show struct {
	InChart *bool `mapstructure:"in_chart" yaml:"in_chart,omitempty"`
}

// Axis configures a y axis or the x axis. Min and Max take a number or
// "auto".
type Axis struct {
	ID       string `mapstructure:"id" yaml:"id,omitempty"`
	Show     *bool  `mapstructure:"show" yaml:"show,omitempty"`
	Opposite bool   `mapstructure:"opposite" yaml:"opposite,omitempty"`
	Label    string `mapstructure:"label" yaml:"label,omitempty"`
	Min      any    `mapstructure:"min" yaml:"min,omitempty"`
	Max      any    `mapstructure:"max" yaml:"max,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("type", CardType)
	v.SetDefault("chart_type", string(core.TypeLine))
	v.SetDefault("library", DefaultLibrary)
	v.SetDefault("hours_to_show", DefaultHours)
	v.SetDefault("refresh_interval", DefaultRefresh)
	v.SetDefault("show_legend", true)
	v.SetDefault("show_tooltip", true)
	v.SetDefault("show_grid", true)
	v.SetDefault("animate", true)
	v.SetDefault("theme", ThemeAuto)
	v.SetDefault("height", DefaultHeight)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads and validates the card configuration at path
func Load(path string) (*Card, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return decode(v)
}

// Parse reads a configuration in the given format ("yaml", "json", ...)
func Parse(r io.Reader, format string) (*Card, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Card, error) {
	card := &Card{}
	if err := v.Unmarshal(card); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// Default returns the defaults applied to every loaded card, with no
// entities.
func Default() Card {
	return Card{
		Type:            CardType,
		ChartType:       string(core.TypeLine),
		Library:         DefaultLibrary,
		HoursToShow:     DefaultHours,
		RefreshInterval: DefaultRefresh,
		Height:          DefaultHeight,
		ShowLegend:      true,
		ShowTooltip:     true,
		ShowGrid:        true,
		Animate:         true,
		Theme:           ThemeAuto,
	}
}

// Stub is the example configuration offered when a card is first added
func Stub() Card {
	card := Default()
	card.Entities = []Entity{{
		Entity: "sensor.temperature",
		Name:   "Temperature",
		Color:  "#ff6384",
	}}
	return card
}

// Validate checks the card and every entity
func (c Card) Validate() error {
	if len(c.Entities) == 0 {
		return ErrNoEntities
	}
	if _, err := core.ParseChartType(c.ChartType); err != nil {
		return err
	}
	for i, e := range c.Entities {
		if err := e.validate(); err != nil {
			return fmt.Errorf("entities[%d]: %w", i, err)
		}
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	if _, err := c.Refresh(); err != nil {
		return err
	}
	switch c.Theme {
	case "", ThemeAuto, string(core.ThemeLight), string(core.ThemeDark):
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTheme, c.Theme)
	}
	if c.Height < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHeight, c.Height)
	}
	axes := append(append([]Axis(nil), c.YAxis...), c.xAxis()...)
	for _, axis := range axes {
		if _, err := bound(axis.Min); err != nil {
			return err
		}
		if _, err := bound(axis.Max); err != nil {
			return err
		}
	}
	return nil
}

func (c Card) xAxis() []Axis {
	if c.XAxis == nil {
		return nil
	}
	return []Axis{*c.XAxis}
}

func (e Entity) validate() error {
	if e.Entity == "" {
		return fmt.Errorf("%w: entity id is required", ErrInvalidEntity)
	}
	if e.Type != "" {
		t, err := core.ParseChartType(e.Type)
		if err != nil {
			return err
		}
		if t.Radial() {
			return fmt.Errorf("%w: %s cannot be a per-series type", ErrInvalidEntity, t)
		}
	}
	if e.Statistics != nil {
		if _, err := hass.ParseStatType(e.Statistics.StatType); err != nil {
			return err
		}
		if _, err := hass.ParsePeriod(e.Statistics.Period); err != nil {
			return err
		}
	}
	return nil
}

// Chart returns the parsed chart type, line when invalid
func (c Card) Chart() core.ChartType {
	t, err := core.ParseChartType(c.ChartType)
	if err != nil {
		return core.TypeLine
	}
	return t
}

// Window returns how far back the chart reaches. Span, when set, wins over
// hours_to_show.
func (c Card) Window() (time.Duration, error) {
	if c.Span != "" {
		return parseDuration(c.Span, time.Hour)
	}
	hours := c.HoursToShow
	if hours <= 0 {
		hours = DefaultHours
	}
	d := time.Duration(hours * float64(time.Hour))
	if d <= 0 {
		return 0, fmt.Errorf("%w: hours_to_show %v", ErrInvalidDuration, c.HoursToShow)
	}
	return d, nil
}

// Refresh returns the refresh period. A bare number counts seconds.
func (c Card) Refresh() (time.Duration, error) {
	if c.RefreshInterval == "" {
		return parseDuration(DefaultRefresh, time.Second)
	}
	return parseDuration(c.RefreshInterval, time.Second)
}

func parseDuration(s string, unit time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		// values below one nanosecond truncate to zero
		d := time.Duration(n * float64(unit))
		if n <= 0 || d <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return d, nil
	}
	d, err := str2duration.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// Axes converts the axis configuration. The first y axis without opposite
// set is the primary one; an opposite axis or one with id "2" is secondary.
func (c Card) Axes() core.Axes {
	var axes core.Axes
	for _, a := range c.YAxis {
		options := a.options()
		if a.Opposite || a.ID == "2" {
			if axes.Y2 == nil {
				axes.Y2 = options
			}
			continue
		}
		if axes.Y == nil {
			axes.Y = options
		}
	}
	if c.XAxis != nil {
		axes.X = c.XAxis.options()
	}
	return axes
}

func (a Axis) options() *core.AxisOptions {
	options := &core.AxisOptions{Label: a.Label}
	if a.Show != nil {
		options.Hidden = !*a.Show
	}
	options.Min, _ = bound(a.Min)
	options.Max, _ = bound(a.Max)
	return options
}

// bound reads an axis limit; nil and "auto" mean unbounded
func bound(v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && (s == "" || strings.EqualFold(s, autoBound)) {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("invalid axis bound %v: %w", v, err)
	}
	return core.Bound(f), nil
}

// SeriesAxisID maps yaxis_id to the axis key backends understand
func (e Entity) SeriesAxisID() string {
	if e.YAxisID == "" {
		return primaryAxisID
	}
	return primaryAxisID + e.YAxisID
}

// InChart reports whether the entity is drawn (show.in_chart defaults on)
func (e Entity) InChart() bool {
	return e.Show == nil || e.Show.InChart == nil || *e.Show.InChart
}

// Write encodes the card as YAML
func Write(w io.Writer, card Card) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(card); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
