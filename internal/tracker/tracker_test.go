package tracker

import (
	"reflect"
	"testing"

	"github.com/mcncl/gobound/internal/models"
	"github.com/stretchr/testify/assert"
)

type node struct{ Next *node }

func TestShouldCollapseContainer(t *testing.T) {
	tests := []struct {
		name     string
		depth    int
		maxDepth int
		expected bool
	}{
		{name: "root below limit", depth: 0, maxDepth: 3, expected: false},
		{name: "just below limit", depth: 2, maxDepth: 3, expected: false},
		{name: "at limit", depth: 3, maxDepth: 3, expected: true},
		{name: "past limit", depth: 4, maxDepth: 3, expected: true},
		{name: "zero limit", depth: 0, maxDepth: 0, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldCollapseContainer(tt.depth, tt.maxDepth))
		})
	}
}

func TestNewState_NegativeDepth(t *testing.T) {
	s := NewState(-5)
	assert.Equal(t, 0, s.MaxDepth)
	assert.True(t, ShouldCollapseContainer(0, s.MaxDepth))
}

func TestState_PushPop(t *testing.T) {
	a, b := &node{}, &node{}
	typ := reflect.TypeOf(node{})
	idA := models.Identity{Addr: reflect.ValueOf(a).Pointer(), Type: typ}
	idB := models.Identity{Addr: reflect.ValueOf(b).Pointer(), Type: typ}

	s := NewState(3)
	assert.False(t, ShouldCollapseForCycle(idA, s))

	s.Push(idA)
	assert.True(t, ShouldCollapseForCycle(idA, s))
	assert.False(t, ShouldCollapseForCycle(idB, s))

	s.Push(idB)
	assert.Equal(t, 2, s.Active())

	s.Pop(idB)
	s.Pop(idA)
	assert.Equal(t, 0, s.Active())
	assert.False(t, ShouldCollapseForCycle(idA, s))
}

func TestState_SameAddressDifferentType(t *testing.T) {
	type outer struct{ Inner node }
	o := &outer{}
	s := NewState(3)

	s.Push(models.Identity{Addr: reflect.ValueOf(o).Pointer(), Type: reflect.TypeOf(outer{})})

	inner := models.Identity{Addr: reflect.ValueOf(&o.Inner).Pointer(), Type: reflect.TypeOf(node{})}
	assert.False(t, ShouldCollapseForCycle(inner, s), "a first field shares its parent's address but is a distinct composite")
}

func TestState_ZeroIdentity(t *testing.T) {
	s := NewState(3)
	s.Push(models.Identity{})
	assert.Equal(t, 0, s.Active())
	assert.False(t, ShouldCollapseForCycle(models.Identity{}, s))
}
