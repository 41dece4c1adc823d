package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func cmdWithBuffer() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestRenderObject_SortsFieldsAndStringifiesValues(t *testing.T) {
	cmd, buf := cmdWithBuffer()

	err := renderObject(cmd, map[string]any{
		"release_branch":          "release/1.0",
		"id":                      "rel-1",
		"has_manual_build_upload": true,
	})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "rel-1")
	assert.Contains(t, out, "release_branch")
	assert.Contains(t, out, "release/1.0")
	assert.Contains(t, out, "has_manual_build_upload")
	assert.Contains(t, out, "true")

	idIdx := bytes.Index(buf.Bytes(), []byte("rel-1"))
	branchIdx := bytes.Index(buf.Bytes(), []byte("release/1.0"))
	assert.Less(t, idIdx, branchIdx, "fields render in sorted key order: has_manual_build_upload, id, release_branch")
}

func TestRenderTaskTable_RendersOneRowPerTaskPlusCount(t *testing.T) {
	cmd, buf := cmdWithBuffer()

	err := renderTaskTable(cmd, []map[string]any{
		{"id": "task-1", "task_type": "fork_branch", "stage": "kickoff", "task_status": "completed", "account_id": nil},
		{"id": "task-2", "task_type": "regression_stage_approval", "stage": "regression", "task_status": "pending", "account_id": "account-1"},
	})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "task-1")
	assert.Contains(t, out, "fork_branch")
	assert.Contains(t, out, "task-2")
	assert.Contains(t, out, "account-1")
	assert.Contains(t, out, "2 task(s)")
}

func TestRenderTaskTable_EmptyListStillPrintsZeroCount(t *testing.T) {
	cmd, buf := cmdWithBuffer()

	err := renderTaskTable(cmd, nil)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "0 task(s)")
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "plain", stringify("plain"))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "1.5", stringify(1.5))
	assert.JSONEq(t, `["a","b"]`, stringify([]any{"a", "b"}))
}
