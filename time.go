package helio

import (
	"fmt"
	"math"
	"time"
)

// Stamp is a count of nanoseconds since the simulation epoch. All of the
// simulation shares this single clock; arithmetic saturates instead of
// wrapping so that a far-future horizon query cannot roll over into the past.
type Stamp int64

const (
	// StampMin is the saturation floor of simulation time.
	StampMin Stamp = math.MinInt64
	// StampMax is the saturation ceiling of simulation time.
	StampMax Stamp = math.MaxInt64
	// TickStep is the fixed physics tick (40 Hz).
	TickStep = Stamp(25 * time.Millisecond)
	// NanosPerSec is the stamp resolution.
	NanosPerSec = 1e9
)

// StampFromSecs returns the stamp for a number of seconds past the epoch.
func StampFromSecs(s float64) Stamp {
	if s >= float64(StampMax)/NanosPerSec {
		return StampMax
	}
	if s <= float64(StampMin)/NanosPerSec {
		return StampMin
	}
	return Stamp(s * NanosPerSec)
}

// StampFromDur returns the stamp at the given offset from the epoch.
func StampFromDur(d time.Duration) Stamp {
	return Stamp(d.Nanoseconds())
}

// Secs returns the stamp in seconds as a float64.
func (t Stamp) Secs() float64 {
	return float64(t) / NanosPerSec
}

// SecsF32 returns the stamp in seconds as a float32.
func (t Stamp) SecsF32() float32 {
	return float32(t.Secs())
}

// Add saturates instead of overflowing.
func (t Stamp) Add(d time.Duration) Stamp {
	return t.AddStamp(Stamp(d.Nanoseconds()))
}

// AddStamp saturates instead of overflowing.
func (t Stamp) AddStamp(dt Stamp) Stamp {
	sum := t + dt
	if dt > 0 && sum < t {
		return StampMax
	}
	if dt < 0 && sum > t {
		return StampMin
	}
	return sum
}

// Sub returns the difference as a stamp offset, saturating.
func (t Stamp) Sub(o Stamp) Stamp {
	return t.AddStamp(-o)
}

// Dur returns the stamp as a time.Duration offset from the epoch.
func (t Stamp) Dur() time.Duration {
	return time.Duration(int64(t))
}

// Floor rounds down to a multiple of div.
func (t Stamp) Floor(div time.Duration) Stamp {
	n := Stamp(div.Nanoseconds())
	if n <= 0 {
		return t
	}
	r := t % n
	if r < 0 {
		r += n
	}
	return t - r
}

// Ceil rounds up to a multiple of div.
func (t Stamp) Ceil(div time.Duration) Stamp {
	f := t.Floor(div)
	if f == t {
		return t
	}
	return f.AddStamp(Stamp(div.Nanoseconds()))
}

// Mod returns the non-negative remainder of t by div.
func (t Stamp) Mod(div Stamp) Stamp {
	if div <= 0 {
		return t
	}
	r := t % div
	if r < 0 {
		r += div
	}
	return r
}

// String implements the Stringer interface.
func (t Stamp) String() string {
	return fmt.Sprintf("T+%s", t.Dur())
}

// Tspace returns n equally spaced stamps from a to b inclusive.
func Tspace(a, b Stamp, n int) []Stamp {
	if n <= 1 {
		return []Stamp{a}
	}
	out := make([]Stamp, n)
	span := float64(b - a)
	for i := 0; i < n; i++ {
		out[i] = a + Stamp(span*float64(i)/float64(n-1))
	}
	out[n-1] = b
	return out
}
