package scale

import (
	"time"
)

// Time is a continuous scale over timestamps.
type Time struct {
	lin    Linear
	d0, d1 time.Time
}

func NewTime(d0, d1 time.Time, r0, r1 float64) Time {
	return Time{
		lin: NewLinear(float64(d0.UnixMilli()), float64(d1.UnixMilli()), r0, r1),
		d0:  d0,
		d1:  d1,
	}
}

func (s Time) Domain() (time.Time, time.Time) { return s.d0, s.d1 }

func (s Time) Map(t time.Time) float64 {
	return s.lin.Map(float64(t.UnixMilli()))
}

func (s Time) Invert(p float64) time.Time {
	return time.UnixMilli(int64(s.lin.Invert(p))).In(s.d0.Location())
}

type interval struct {
	step   time.Duration
	months int
	layout string
}

var intervals = []interval{
	{step: time.Second, layout: "15:04:05"},
	{step: 5 * time.Second, layout: "15:04:05"},
	{step: 15 * time.Second, layout: "15:04:05"},
	{step: 30 * time.Second, layout: "15:04:05"},
	{step: time.Minute, layout: "15:04"},
	{step: 5 * time.Minute, layout: "15:04"},
	{step: 15 * time.Minute, layout: "15:04"},
	{step: 30 * time.Minute, layout: "15:04"},
	{step: time.Hour, layout: "15:04"},
	{step: 3 * time.Hour, layout: "15:04"},
	{step: 6 * time.Hour, layout: "15:04"},
	{step: 12 * time.Hour, layout: "Jan 02 15:04"},
	{step: 24 * time.Hour, layout: "Jan 02"},
	{step: 48 * time.Hour, layout: "Jan 02"},
	{step: 7 * 24 * time.Hour, layout: "Jan 02"},
	{months: 1, layout: "Jan 2006"},
	{months: 3, layout: "Jan 2006"},
	{months: 12, layout: "2006"},
}

// Tick is one labelled axis position.
type Tick struct {
	At    time.Time
	Label string
}

// Ticks picks the smallest calendar interval producing at most count ticks
// and returns the aligned timestamps inside the domain.
func (s Time) Ticks(count int) []Tick {
	lo, hi := s.d0, s.d1
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	if count <= 0 || !hi.After(lo) {
		return []Tick{{At: lo, Label: lo.Format("Jan 02 15:04")}}
	}

	span := hi.Sub(lo)
	chosen := intervals[len(intervals)-1]
	for _, iv := range intervals {
		if iv.approx()*time.Duration(count) >= span {
			chosen = iv
			break
		}
	}

	ticks := make([]Tick, 0, count+1)
	for t := chosen.floor(lo); !t.After(hi); t = chosen.next(t) {
		if t.Before(lo) {
			continue
		}
		ticks = append(ticks, Tick{At: t, Label: t.Format(chosen.layout)})
	}
	return ticks
}

func (iv interval) approx() time.Duration {
	if iv.months > 0 {
		return time.Duration(iv.months) * 30 * 24 * time.Hour
	}
	return iv.step
}

func (iv interval) floor(t time.Time) time.Time {
	if iv.months > 0 {
		month := (int(t.Month())-1)/iv.months*iv.months + 1
		return time.Date(t.Year(), time.Month(month), 1, 0, 0, 0, 0, t.Location())
	}
	if iv.step >= 24*time.Hour {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	return t.Truncate(iv.step)
}

func (iv interval) next(t time.Time) time.Time {
	if iv.months > 0 {
		return t.AddDate(0, iv.months, 0)
	}
	return t.Add(iv.step)
}
