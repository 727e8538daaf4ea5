/*
	aggregator provides concurrent-safe accumulator implementations that
	satisfy the bsp.Aggregator interface. Compute workers from any number
	of goroutines may fold values into an accumulator within a superstep.
*/

package aggregator

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// IntAccumulator is a concurrent-safe accumulator for int values.
type IntAccumulator struct {
	prev int64
	curr int64
}

// Type returns the type of this accumulator as a string.
func (a *IntAccumulator) Type() string {
	return "IntAccumulator"
}

// Get returns the current accumulator value.
func (a *IntAccumulator) Get() interface{} {
	return int(atomic.LoadInt64(&a.curr))
}

// Set both the current and the delta-tracking value of the accumulator to
// the specified value.
func (a *IntAccumulator) Set(val interface{}) {
	for value := int64(val.(int)); ; {
		oldCurr := a.curr
		oldPrev := a.prev

		swappedCurr := atomic.CompareAndSwapInt64(&a.curr, oldCurr, value)
		swappedPrev := atomic.CompareAndSwapInt64(&a.prev, oldPrev, value)

		if swappedCurr && swappedPrev {
			return
		}
	}
}

// Aggregate adds the provided value to the accumulator's current sum.
func (a *IntAccumulator) Aggregate(val interface{}) {
	_ = atomic.AddInt64(&a.curr, int64(val.(int)))
}

// Delta returns the change in the accumulator's value since the last call to
// Delta or Set.
func (a *IntAccumulator) Delta() interface{} {
	for {
		curr := atomic.LoadInt64(&a.curr)
		prev := atomic.LoadInt64(&a.prev)

		// Fold the current sum into prev; if the swap succeeds the
		// difference is the delta accumulated since the last call.
		if atomic.CompareAndSwapInt64(&a.prev, prev, curr) {
			return int(curr - prev)
		}
	}
}

// Float64Accumulator is a concurrent-safe accumulator for float64 values.
type Float64Accumulator struct {
	prev float64
	curr float64
}

// Type returns the type of this accumulator as a string.
func (a *Float64Accumulator) Type() string {
	return "Float64Accumulator"
}

// Get returns the current accumulator value.
func (a *Float64Accumulator) Get() interface{} {
	return loadFloat64(&a.curr)
}

// Set both the current and the delta-tracking value of the accumulator to
// the specified value.
func (a *Float64Accumulator) Set(val interface{}) {
	for value := val.(float64); ; {
		oldCurr := loadFloat64(&a.curr)
		oldPrev := loadFloat64(&a.prev)

		swappedCurr := atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(&a.curr)),
			math.Float64bits(oldCurr), math.Float64bits(value),
		)
		swappedPrev := atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(&a.prev)),
			math.Float64bits(oldPrev), math.Float64bits(value),
		)

		if swappedCurr && swappedPrev {
			return
		}
	}
}

// Aggregate adds the provided value to the accumulator's current sum.
func (a *Float64Accumulator) Aggregate(val interface{}) {
	// Retry the compare-and-swap until it succeeds.
	for value := val.(float64); ; {
		oldValue := loadFloat64(&a.curr)
		newValue := oldValue + value

		if atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(&a.curr)),
			math.Float64bits(oldValue), math.Float64bits(newValue),
		) {
			return
		}
	}
}

// Delta returns the change in the accumulator's value since the last call to
// Delta or Set.
func (a *Float64Accumulator) Delta() interface{} {
	for {
		curr := loadFloat64(&a.curr)
		prev := loadFloat64(&a.prev)

		if atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(&a.prev)),
			math.Float64bits(prev), math.Float64bits(curr),
		) {
			return curr - prev
		}
	}
}

// loadFloat64 atomically loads a float64 by going through its uint64 bit
// pattern; the atomic package has no native float64 support.
func loadFloat64(val *float64) float64 {
	return math.Float64frombits(
		atomic.LoadUint64((*uint64)(unsafe.Pointer(val))),
	)
}
