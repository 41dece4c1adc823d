package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// renderObject prints a single JSON object as a two-column key/value
// table, sorted for deterministic output. Grounded on the sibling repo's
// console formatter (pkg/report/format/console.go): a jedib0t/go-pretty
// table.Writer with the rounded style, mirrored to the command's stdout.
func renderObject(cmd *cobra.Command, obj map[string]any) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, stringify(obj[k])})
	}
	tw.Render()
	return nil
}

// renderTaskTable prints a list of task objects, pulling out the columns
// an operator cares about (id/type/stage/status/account) rather than the
// full JSON blob per row.
func renderTaskTable(cmd *cobra.Command, tasks []map[string]any) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Stage", "Status", "Account"})

	for _, t := range tasks {
		tw.AppendRow(table.Row{
			stringify(t["id"]),
			stringify(t["task_type"]),
			stringify(t["stage"]),
			stringify(t["task_status"]),
			stringify(t["account_id"]),
		})
	}
	tw.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d task(s)\n", len(tasks))
	return nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
