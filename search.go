package helio

import "fmt"

// SearchFailure describes why a predicate inversion failed.
type SearchFailure uint8

const (
	// SearchInitial means the predicate was already false at the start point.
	SearchInitial SearchFailure = iota + 1
	// SearchFinal means the predicate was still true at the end point.
	SearchFinal
	// SearchMaxIter means the bisection did not converge within the cap.
	SearchMaxIter
)

func (f SearchFailure) String() string {
	switch f {
	case SearchInitial:
		return "initial"
	case SearchFinal:
		return "final"
	case SearchMaxIter:
		return "max-iter"
	}
	panic("cannot stringify unknown search failure")
}

// SearchError is returned when the inverter cannot bracket a single
// true-to-false transition.
type SearchError struct {
	Failure SearchFailure
}

func (e SearchError) Error() string {
	return fmt.Sprintf("search: %s endpoint condition violated", e.Failure)
}

const maxSearchIters = 100

// InvertF finds the unique transition of cond from true to false inside
// [a, b], to within tol. The predicate must hold at a and must not hold at b.
func InvertF(cond func(float64) bool, a, b, tol float64) (float64, error) {
	if !cond(a) {
		return 0, SearchError{SearchInitial}
	}
	if cond(b) {
		return 0, SearchError{SearchFinal}
	}
	for i := 0; i < maxSearchIters; i++ {
		mid := (a + b) / 2
		if cond(mid) {
			a = mid
		} else {
			b = mid
		}
		if b-a <= tol {
			return (a + b) / 2, nil
		}
	}
	return 0, SearchError{SearchMaxIter}
}

// InvertStamp is InvertF over simulation time.
func InvertStamp(cond func(Stamp) bool, a, b Stamp, tol Stamp) (Stamp, error) {
	if tol < 1 {
		tol = 1
	}
	if !cond(a) {
		return 0, SearchError{SearchInitial}
	}
	if cond(b) {
		return 0, SearchError{SearchFinal}
	}
	for i := 0; i < maxSearchIters; i++ {
		mid := a + (b-a)/2
		if cond(mid) {
			a = mid
		} else {
			b = mid
		}
		if b-a <= tol {
			return a + (b-a)/2, nil
		}
	}
	return 0, SearchError{SearchMaxIter}
}
