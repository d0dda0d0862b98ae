package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]string{
		"PENDING":             StatusPending,
		"sent":                StatusSent,
		" partially_assigned": StatusPartiallyAssigned,
		"Assigned":            StatusAssigned,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "DELIVERED", "SENT!"} {
		_, ok := ParseStatus(bad)
		assert.False(t, ok, bad)
	}
}

func TestAssignmentTransitions(t *testing.T) {
	assert.True(t, CanTransition(ValidAssignmentTransitions, StatusPending, StatusAssigned))
	assert.True(t, CanTransition(ValidAssignmentTransitions, StatusAssigned, StatusSent))
	assert.True(t, CanTransition(ValidAssignmentTransitions, StatusSent, StatusSent))

	// 不允许跳过或回退
	assert.False(t, CanTransition(ValidAssignmentTransitions, StatusPending, StatusSent))
	assert.False(t, CanTransition(ValidAssignmentTransitions, StatusSent, StatusAssigned))
	assert.False(t, CanTransition(ValidAssignmentTransitions, StatusPending, StatusPartiallyAssigned))
}

func TestRequestTransitions(t *testing.T) {
	assert.True(t, CanTransition(ValidRequestTransitions, StatusPending, StatusPartiallyAssigned))
	assert.True(t, CanTransition(ValidRequestTransitions, StatusPending, StatusAssigned))
	assert.True(t, CanTransition(ValidRequestTransitions, StatusAssigned, StatusSent))

	assert.False(t, CanTransition(ValidRequestTransitions, StatusPending, StatusSent))
	assert.False(t, CanTransition(ValidRequestTransitions, StatusPartiallyAssigned, StatusSent))
	assert.False(t, CanTransition(ValidRequestTransitions, StatusSent, StatusPending))
}

func TestDeriveRequestStatus(t *testing.T) {
	assert.Equal(t, StatusPending, DeriveRequestStatus(0, 40))
	assert.Equal(t, StatusPartiallyAssigned, DeriveRequestStatus(10, 40))
	assert.Equal(t, StatusAssigned, DeriveRequestStatus(40, 40))
}
