// Package recorder keeps entity state history in BuntDB and serves it back
// as history and per-period statistics.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/buntdb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/raykavin/pikachart/pkg/hass"
	"github.com/raykavin/pikachart/pkg/logger"
)

const keyPrefix = "state:"

var ErrInvalidEntity = errors.New("invalid entity id")

// Recorder implements hass.HistoryProvider on top of BuntDB
type Recorder struct {
	db  *buntdb.DB
	log logger.Logger
}

// Option configures a Recorder
type Option func(*Recorder)

// WithLogger sets the logger used for skipped records
func WithLogger(log logger.Logger) Option {
	return func(r *Recorder) {
		r.log = log
	}
}

// FromMemory creates an in-memory recorder
func FromMemory(options ...Option) (*Recorder, error) {
	return Open(":memory:", options...)
}

// FromFile creates a file-backed recorder
func FromFile(file string, options ...Option) (*Recorder, error) {
	return Open(file, options...)
}

// Open opens a BuntDB database at path
func Open(path string, options ...Option) (*Recorder, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	r := &Recorder{db: db, log: logger.Nop()}
	for _, option := range options {
		option(r)
	}
	return r, nil
}

// stateKey sorts lexically in time order for non-negative unix times
func stateKey(entityID string, at time.Time) string {
	return fmt.Sprintf("%s%s:%020d", keyPrefix, entityID, at.UnixNano())
}

func entityOf(key string) string {
	key = strings.TrimPrefix(key, keyPrefix)
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func validEntity(entityID string) error {
	if entityID == "" || strings.ContainsAny(entityID, ":*? ") {
		return fmt.Errorf("%w: %q", ErrInvalidEntity, entityID)
	}
	return nil
}

// Record stores one state change of entityID
func (r *Recorder) Record(ctx context.Context, entityID string, change hass.StateChange) error {
	return r.RecordMany(ctx, entityID, []hass.StateChange{change})
}

// RecordMany stores changes in a single transaction
func (r *Recorder) RecordMany(ctx context.Context, entityID string, changes []hass.StateChange) error {
	if err := validEntity(entityID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *buntdb.Tx) error {
		for _, change := range changes {
			content, err := json.Marshal(change)
			if err != nil {
				return fmt.Errorf("failed to marshal state change: %w", err)
			}
			if _, _, err := tx.Set(stateKey(entityID, change.LastChanged), string(content), nil); err != nil {
				return fmt.Errorf("failed to store state change: %w", err)
			}
		}
		return nil
	})
}

// History returns the changes of entityID with start <= last_changed < end,
// oldest first
func (r *Recorder) History(ctx context.Context, entityID string, start, end time.Time) ([]hass.StateChange, error) {
	if err := validEntity(entityID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	changes := make([]hass.StateChange, 0)
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendRange("", stateKey(entityID, start), stateKey(entityID, end), func(key, value string) bool {
			var change hass.StateChange
			if err := json.Unmarshal([]byte(value), &change); err != nil {
				r.log.WithError(err).WithField("key", key).Warn("skipping unreadable state change")
				return true
			}
			changes = append(changes, change)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate history of %s: %w", entityID, err)
	}
	return changes, nil
}

// Statistics aggregates the numeric history of entityID per period bucket.
// State is the last value seen in the bucket.
func (r *Recorder) Statistics(ctx context.Context, entityID string, start, end time.Time, period hass.Period) ([]hass.Statistic, error) {
	changes, err := r.History(ctx, entityID, start, end)
	if err != nil {
		return nil, err
	}

	var (
		out     []hass.Statistic
		bucket  time.Time
		values  []float64
		started bool
	)
	flush := func() {
		if len(values) == 0 {
			return
		}
		out = append(out, aggregate(bucket, values))
		values = values[:0]
	}

	for _, point := range hass.HistoryPoints(changes, "") {
		at := period.Truncate(point.X.Time())
		if !started || !at.Equal(bucket) {
			flush()
			bucket, started = at, true
		}
		values = append(values, point.Y)
	}
	flush()
	return out, nil
}

func aggregate(start time.Time, values []float64) hass.Statistic {
	mean := stat.Mean(values, nil)
	lo, hi := floats.Min(values), floats.Max(values)
	sum := floats.Sum(values)
	last := values[len(values)-1]
	return hass.Statistic{Start: start, Min: &lo, Max: &hi, Mean: &mean, Sum: &sum, State: &last}
}

// States returns the latest recorded change of every entity
func (r *Recorder) States(ctx context.Context) (hass.States, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states := make(hass.States)
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(key, value string) bool {
			var change hass.StateChange
			if err := json.Unmarshal([]byte(value), &change); err != nil {
				r.log.WithError(err).WithField("key", key).Warn("skipping unreadable state change")
				return true
			}
			id := entityOf(key)
			states[id] = hass.Entity{
				EntityID:    id,
				State:       change.State,
				Attributes:  change.Attributes,
				LastChanged: change.LastChanged,
				LastUpdated: change.LastChanged,
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate states: %w", err)
	}
	return states, nil
}

// Count returns the number of stored changes
func (r *Recorder) Count() (int, error) {
	var n int
	err := r.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Close closes the database
func (r *Recorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ hass.HistoryProvider = (*Recorder)(nil)
