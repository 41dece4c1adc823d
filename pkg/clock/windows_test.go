package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotDue(t *testing.T) {
	slot := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before slot", slot.Add(-time.Hour), false},
		{"just outside window", slot.Add(-window - time.Second), false},
		{"at window edge", slot.Add(-window), true},
		{"inside window", slot.Add(-time.Minute), true},
		{"exactly at slot", slot, true},
		{"well after slot", slot.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotDue(slot, tt.now, window))
		})
	}
}

func TestIsKickOffReminderTime(t *testing.T) {
	kickOff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	offset := 24 * time.Hour
	window := 10 * time.Minute

	assert.True(t, IsKickOffReminderTime(kickOff, offset, kickOff.Add(-offset), window))
	assert.False(t, IsKickOffReminderTime(kickOff, offset, kickOff.Add(-offset-time.Hour), window))
	assert.True(t, IsKickOffReminderTime(kickOff, offset, kickOff, window))
}

func TestIsBranchForkTime(t *testing.T) {
	kickOff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	window := time.Minute

	assert.True(t, IsBranchForkTime(kickOff, kickOff, window))
	assert.False(t, IsBranchForkTime(kickOff, kickOff.Add(-time.Hour), window))
}

func TestIsRegressionSlotTime(t *testing.T) {
	slot := time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC)
	window := 2 * time.Minute

	assert.True(t, IsRegressionSlotTime(slot, slot.Add(-window), window))
	assert.False(t, IsRegressionSlotTime(slot, slot.Add(-window-time.Second), window))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := Fixed{At: at}
	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}
