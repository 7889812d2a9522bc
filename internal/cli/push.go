package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/model"
)

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "push <mailbox>",
		Short: "Choose whether sync watches a mailbox",
		Long: `Mark a mailbox for push: sync --once covers it and the long-running
sync waits on the server for its changes. With --off the mailbox is only
synced when asked for. The mailbox is a server id or a role name.

Inbox, calendar and contacts start out pushed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			mb, err := s.mailboxOrRole(ctx, args[0])
			if err != nil {
				return err
			}
			interval := model.SyncIntervalPush
			if off {
				interval = model.SyncIntervalNever
			}
			if err := s.store.SetSyncInterval(ctx, mb.ID, interval); err != nil {
				return WrapExitError(ExitFailure, "failed to update mailbox", err)
			}
			mb.SyncInterval = interval
			return rootOpts.formatter(cmd).Success(folderList([]model.Mailbox{*mb}))
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "stop pushing the mailbox")
	return cmd
}
