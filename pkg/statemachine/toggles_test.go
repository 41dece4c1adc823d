package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleEnabled(t *testing.T) {
	cfg := map[string]bool{
		toggleKickOffReminder: true,
		toggleTestSuite:       false,
	}

	assert.True(t, toggleEnabled(cfg, toggleKickOffReminder))
	assert.False(t, toggleEnabled(cfg, toggleTestSuite))
	assert.False(t, toggleEnabled(cfg, toggleAdHocNotification), "missing key defaults to disabled")
}
