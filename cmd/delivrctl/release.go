package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Create, inspect, and operate releases",
	}
	cmd.AddCommand(newReleaseCreateCmd())
	cmd.AddCommand(newReleaseGetCmd())
	cmd.AddCommand(newReleaseTasksCmd())
	cmd.AddCommand(newReleaseStartCronCmd())
	cmd.AddCommand(newReleaseStopCronCmd())
	cmd.AddCommand(newReleasePauseCmd())
	cmd.AddCommand(newReleaseResumeCmd())
	cmd.AddCommand(newReleaseArchiveCmd())
	cmd.AddCommand(newReleaseStage2Cmd())
	cmd.AddCommand(newReleaseStage3Cmd())
	return cmd
}

func newReleaseCreateCmd() *cobra.Command {
	var req struct {
		TenantID      string
		ReleaseBranch string
		BaseBranch    string
		Type          string
		KickOffDate   string
		CreatedBy     string
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new release",
		RunE: func(cmd *cobra.Command, args []string) error {
			kickOff, err := time.Parse(time.RFC3339, req.KickOffDate)
			if err != nil {
				return fmt.Errorf("invalid --kick-off-date (want RFC3339): %w", err)
			}
			body := map[string]any{
				"tenant_id":      req.TenantID,
				"release_branch": req.ReleaseBranch,
				"base_branch":    req.BaseBranch,
				"type":           req.Type,
				"kick_off_date":  kickOff,
				"created_by":     req.CreatedBy,
			}
			var rel map[string]any
			if err := client().post(cmd.Context(), "/releases", body, &rel); err != nil {
				return err
			}
			return renderObject(cmd, rel)
		},
	}
	cmd.Flags().StringVar(&req.TenantID, "tenant-id", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&req.ReleaseBranch, "branch", "", "Release branch (required)")
	cmd.Flags().StringVar(&req.BaseBranch, "base-branch", "", "Base branch (required)")
	cmd.Flags().StringVar(&req.Type, "type", "planned", "Release type: planned|hotfix|major|minor")
	cmd.Flags().StringVar(&req.KickOffDate, "kick-off-date", "", "Kick-off date, RFC3339 (required)")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "Creating account ID (required)")
	for _, f := range []string{"tenant-id", "branch", "base-branch", "kick-off-date", "created-by"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newReleaseGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <release-id>",
		Short: "Show a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rel map[string]any
			if err := client().get(cmd.Context(), "/releases/"+args[0], &rel); err != nil {
				return err
			}
			return renderObject(cmd, rel)
		},
	}
}

func newReleaseTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <release-id>",
		Short: "List a release's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []map[string]any
			if err := client().get(cmd.Context(), "/releases/"+args[0]+"/tasks", &tasks); err != nil {
				return err
			}
			return renderTaskTable(cmd, tasks)
		},
	}
}

func newReleaseStartCronCmd() *cobra.Command {
	var kickOff, target string
	cmd := &cobra.Command{
		Use:   "start-cron <release-id>",
		Short: "Start (or restart) a release's cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := time.Parse(time.RFC3339, kickOff)
			if err != nil {
				return fmt.Errorf("invalid --kick-off-date (want RFC3339): %w", err)
			}
			body := map[string]any{"kick_off_date": k}
			if target != "" {
				t, err := time.Parse(time.RFC3339, target)
				if err != nil {
					return fmt.Errorf("invalid --target-date (want RFC3339): %w", err)
				}
				body["target_date"] = t
			}
			var job map[string]any
			if err := client().post(cmd.Context(), "/releases/"+args[0]+"/cron", body, &job); err != nil {
				return err
			}
			return renderObject(cmd, job)
		},
	}
	cmd.Flags().StringVar(&kickOff, "kick-off-date", "", "Kick-off date, RFC3339 (required)")
	cmd.Flags().StringVar(&target, "target-date", "", "Target release date, RFC3339")
	_ = cmd.MarkFlagRequired("kick-off-date")
	return cmd
}

func newReleaseStopCronCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-cron <release-id>",
		Short: "Stop a release's cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().del(cmd.Context(), "/releases/"+args[0]+"/cron")
		},
	}
}

func tenantScopedCmd(use, short, path string) *cobra.Command {
	var tenantID string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"tenant_id": tenantID}
			return client().post(cmd.Context(), "/releases/"+args[0]+path, body, nil)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant ID (required)")
	_ = cmd.MarkFlagRequired("tenant-id")
	return cmd
}

func newReleasePauseCmd() *cobra.Command {
	return tenantScopedCmd("pause <release-id>", "Pause a release", "/pause")
}

func newReleaseResumeCmd() *cobra.Command {
	return tenantScopedCmd("resume <release-id>", "Resume a paused release", "/resume")
}

func newReleaseStage2Cmd() *cobra.Command {
	return tenantScopedCmd("stage2 <release-id>", "Trigger stage 2 (kick off regression)", "/stage2")
}

func newReleaseArchiveCmd() *cobra.Command {
	var accountID string
	cmd := &cobra.Command{
		Use:   "archive <release-id>",
		Short: "Archive a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"account_id": accountID}
			return client().post(cmd.Context(), "/releases/"+args[0]+"/archive", body, nil)
		},
	}
	cmd.Flags().StringVar(&accountID, "account-id", "", "Archiving account ID (required)")
	_ = cmd.MarkFlagRequired("account-id")
	return cmd
}

func newReleaseStage3Cmd() *cobra.Command {
	var tenantID, approvedBy, comments string
	var force bool
	cmd := &cobra.Command{
		Use:   "stage3 <release-id>",
		Short: "Trigger stage 3 (kick off pre-release)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"tenant_id":     tenantID,
				"approved_by":   approvedBy,
				"force_approve": force,
			}
			if comments != "" {
				body["comments"] = comments
			}
			return client().post(cmd.Context(), "/releases/"+args[0]+"/stage3", body, nil)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "Tenant ID (required)")
	cmd.Flags().StringVar(&approvedBy, "approved-by", "", "Approving account ID (required)")
	cmd.Flags().StringVar(&comments, "comments", "", "Optional approval comments")
	cmd.Flags().BoolVar(&force, "force", false, "Bypass the cherry-pick and open-cycle checks")
	for _, f := range []string{"tenant-id", "approved-by"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
