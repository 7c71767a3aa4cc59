// Package hass describes the home-automation data the card consumes: entity
// snapshots, recorded state changes and long-term statistics.
package hass

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/raykavin/pikachart/pkg/core"
)

var (
	ErrUnknownStatType = errors.New("unknown statistic type")
	ErrUnknownPeriod   = errors.New("unknown statistic period")
)

const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"

	AttrFriendlyName = "friendly_name"
	AttrUnit         = "unit_of_measurement"
)

// Entity is the current state of one entity.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// States maps entity ids to their current state.
type States map[string]Entity

// StateChange is one entry of an entity's history.
type StateChange struct {
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed"`
}

// Statistic is one aggregated period. Fields the recorder did not compute
// are nil.
type Statistic struct {
	Start time.Time `json:"start"`
	Min   *float64  `json:"min,omitempty"`
	Max   *float64  `json:"max,omitempty"`
	Mean  *float64  `json:"mean,omitempty"`
	Sum   *float64  `json:"sum,omitempty"`
	State *float64  `json:"state,omitempty"`
}

type StatType string

const (
	StatMin   StatType = "min"
	StatMax   StatType = "max"
	StatMean  StatType = "mean"
	StatSum   StatType = "sum"
	StatState StatType = "state"
)

// ParseStatType validates a statistic type, defaulting to mean.
func ParseStatType(s string) (StatType, error) {
	switch t := StatType(s); t {
	case "":
		return StatMean, nil
	case StatMin, StatMax, StatMean, StatSum, StatState:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatType, s)
}

type Period string

const (
	Period5Minute Period = "5minute"
	PeriodHour    Period = "hour"
	PeriodDay     Period = "day"
	PeriodMonth   Period = "month"
)

// ParsePeriod validates a statistics period, defaulting to hour.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodHour, nil
	case Period5Minute, PeriodHour, PeriodDay, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Truncate returns the start of the period containing t, in t's location.
func (p Period) Truncate(t time.Time) time.Time {
	switch p {
	case Period5Minute:
		return t.Truncate(5 * time.Minute)
	case PeriodDay:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case PeriodMonth:
		y, m, _ := t.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
	return t.Truncate(time.Hour)
}

// Next returns the start of the period following start.
func (p Period) Next(start time.Time) time.Time {
	switch p {
	case Period5Minute:
		return start.Add(5 * time.Minute)
	case PeriodDay:
		return start.AddDate(0, 0, 1)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	}
	return start.Add(time.Hour)
}

// HistoryProvider is the data layer the card fetches from.
type HistoryProvider interface {
	History(ctx context.Context, entityID string, start, end time.Time) ([]StateChange, error)
	Statistics(ctx context.Context, entityID string, start, end time.Time, period Period) ([]Statistic, error)
}

// HistoryPoints converts state changes to time points. Unknown and
// unavailable states are dropped, as are values that are not finite numbers.
// With attribute set, the value is read from that attribute instead of the
// state.
func HistoryPoints(changes []StateChange, attribute string) []core.DataPoint {
	points := make([]core.DataPoint, 0, len(changes))
	for _, change := range changes {
		if change.State == StateUnknown || change.State == StateUnavailable {
			continue
		}

		var raw any = change.State
		if attribute != "" {
			raw = change.Attributes[attribute]
		}
		value, ok := Numeric(raw)
		if !ok {
			continue
		}
		points = append(points, core.DataPoint{X: core.Time(change.LastChanged), Y: value})
	}
	return points
}

// StatisticPoints picks statType out of every statistic. A missing field
// falls back to mean, then state; periods with neither are dropped.
func StatisticPoints(stats []Statistic, statType StatType) []core.DataPoint {
	return lo.FilterMap(stats, func(stat Statistic, _ int) (core.DataPoint, bool) {
		value := stat.field(statType)
		if value == nil {
			value = lo.Ternary(stat.Mean != nil, stat.Mean, stat.State)
		}
		if value == nil || !finite(*value) {
			return core.DataPoint{}, false
		}
		return core.DataPoint{X: core.Time(stat.Start), Y: *value}, true
	})
}

func (s Statistic) field(t StatType) *float64 {
	switch t {
	case StatMin:
		return s.Min
	case StatMax:
		return s.Max
	case StatSum:
		return s.Sum
	case StatState:
		return s.State
	}
	return s.Mean
}

// Numeric reads a sensor value from a state string or attribute value.
func Numeric(raw any) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	if _, ok := raw.(bool); ok {
		return 0, false
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil || !finite(value) {
		return 0, false
	}
	return value, true
}

// FriendlyName returns the display name attribute, or the entity id.
func FriendlyName(entity Entity) string {
	if name := cast.ToString(entity.Attributes[AttrFriendlyName]); name != "" {
		return name
	}
	return entity.EntityID
}

// Unit returns the unit of measurement attribute.
func Unit(entity Entity) string {
	return cast.ToString(entity.Attributes[AttrUnit])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
