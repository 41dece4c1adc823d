package main

import "github.com/spf13/cobra"

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Retry or approve individual release tasks",
	}
	cmd.AddCommand(newTaskRetryCmd())
	cmd.AddCommand(newTaskApproveCmd())
	return cmd
}

func newTaskRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <task-id>",
		Short: "Retry a failed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().post(cmd.Context(), "/tasks/"+args[0]+"/retry", nil, nil)
		},
	}
}

func newTaskApproveCmd() *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:   "approve <task-id>",
		Short: "Approve a pending approval-gate task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"account_id": accountID}
			return client().post(cmd.Context(), "/tasks/"+args[0]+"/approve", body, nil)
		},
	}
	cmd.Flags().StringVar(&accountID, "account-id", "", "Approving account ID (required)")
	_ = cmd.MarkFlagRequired("account-id")
	return cmd
}
