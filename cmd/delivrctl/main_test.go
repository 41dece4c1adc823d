package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCmd_ReleaseGetRendersServerResponse drives the cobra command
// tree end to end against a real httptest.Server, the same boundary the
// CLI talks to in production — grounded on the teacher's CLI entrypoint
// test (cmd/devdashboard/main_test.go), adapted from its os.Pipe/stdout
// capture to this CLI's cmd.SetOut, since every render function here
// writes through cmd.OutOrStdout() rather than directly to os.Stdout.
func TestRootCmd_ReleaseGetRendersServerResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/releases/rel-42", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rel-42", "release_branch": "release/e2e"})
	}))
	defer server.Close()

	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"release", "get", "rel-42", "--server", server.URL})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "rel-42")
	assert.Contains(t, buf.String(), "release/e2e")
}

// TestRootCmd_ReleaseCreateMissingRequiredFlagFailsBeforeAnyRequest
// asserts cobra's own required-flag validation short-circuits before the
// command ever reaches the server.
func TestRootCmd_ReleaseCreateMissingRequiredFlagFailsBeforeAnyRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"release", "create", "--server", server.URL})

	err := root.Execute()
	require.Error(t, err)
	assert.False(t, called, "an incomplete request must never reach the server")
}

// TestRootCmd_ReleaseStopCronPropagatesServerConflict asserts a 409 from
// the server surfaces as a command error rather than being swallowed.
func TestRootCmd_ReleaseStopCronPropagatesServerConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"cron job not running"}`))
	}))
	defer server.Close()

	root := newRootCmd()
	root.SetArgs([]string{"release", "stop-cron", "rel-99", "--server", server.URL})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
