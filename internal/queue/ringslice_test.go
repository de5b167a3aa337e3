package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type prioritized struct {
	id       string
	priority int
}

func priorityOf(p prioritized) int { return p.priority }

func TestInsertByPriorityDescendingOrder(t *testing.T) {
	var states []prioritized
	states = insertByPriority(states, prioritized{"a", 10}, priorityOf)
	states = insertByPriority(states, prioritized{"b", 5}, priorityOf)
	states = insertByPriority(states, prioritized{"c", 20}, priorityOf)

	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.id
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestInsertByPriorityFIFOWithinSameLevel(t *testing.T) {
	var states []prioritized
	states = insertByPriority(states, prioritized{"a", 5}, priorityOf)
	states = insertByPriority(states, prioritized{"b", 5}, priorityOf)
	states = insertByPriority(states, prioritized{"c", 5}, priorityOf)

	ids := make([]string, len(states))
	for i, s := range states {
		ids[i] = s.id
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestDropTail(t *testing.T) {
	states := []int{1, 2, 3}
	rest, dropped, ok := dropTail(states, 2)
	assert.True(t, ok)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, []int{1, 2}, rest)

	_, _, ok = dropTail(states, 3)
	assert.False(t, ok)
}

func TestDropHead(t *testing.T) {
	states := []int{1, 2, 3}
	rest, dropped, ok := dropHead(states, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []int{2, 3}, rest)

	_, _, ok = dropHead(states, 3)
	assert.False(t, ok)
}
