package scale

// Band splits a range into evenly spaced bands, one per domain key.
type Band struct {
	keys      []string
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBand lays out keys over [r0, r1]. padding is applied both between
// bands and on the outer edges, as a fraction of the step.
func NewBand(keys []string, r0, r1, padding float64) Band {
	b := Band{
		keys:  append([]string(nil), keys...),
		index: make(map[string]int, len(keys)),
	}
	for i, k := range keys {
		if _, ok := b.index[k]; !ok {
			b.index[k] = i
		}
	}

	n := float64(len(keys))
	b.step = (r1 - r0) / max(1, n-padding+padding*2)
	b.bandwidth = b.step * (1 - padding)
	b.start = r0 + (r1-r0-b.step*(n-padding))*0.5
	return b
}

func (b Band) Keys() []string     { return b.keys }
func (b Band) Bandwidth() float64 { return b.bandwidth }
func (b Band) Step() float64      { return b.step }

// Map returns the left edge of the key's band.
func (b Band) Map(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}
