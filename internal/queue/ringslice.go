package queue

import "golang.org/x/exp/constraints"

// insertByPriority inserts s into states, which must already be sorted by
// priority(s) descending, preserving FIFO order within a priority level: it
// finds the last index i such that priority(states[i]) >= priority(s), and
// inserts at i+1.
//
// Generic over both the element and priority type, in the same style as
// catrate/ring.go's generic ring buffer (constraints.Ordered for the
// comparison key), generalized here from a plain ordered sequence to a
// keyed-priority insertion.
func insertByPriority[T any, P constraints.Ordered](states []T, item T, priority func(T) P) []T {
	insertAt := 0
	p := priority(item)
	for i, queued := range states {
		if p <= priority(queued) {
			insertAt = i + 1
		} else {
			break
		}
	}
	var zero T
	states = append(states, zero)
	copy(states[insertAt+1:], states[insertAt:])
	states[insertAt] = item
	return states
}

// dropTail removes and returns the last element of states, if over maxLen,
// else returns states unchanged and ok=false.
func dropTail[T any](states []T, maxLen int) (_ []T, dropped T, ok bool) {
	if len(states) <= maxLen {
		return states, dropped, false
	}
	dropped = states[len(states)-1]
	return states[:len(states)-1], dropped, true
}

// dropHead removes and returns the first element of states, if over maxLen,
// else returns states unchanged and ok=false. Used for the interrupted
// stack, where the oldest (bottom of stack, index 0) is evicted on
// overflow.
func dropHead[T any](states []T, maxLen int) (_ []T, dropped T, ok bool) {
	if len(states) <= maxLen {
		return states, dropped, false
	}
	dropped = states[0]
	return states[1:], dropped, true
}
