package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/model"
)

// EstimateResult is the number of changes waiting for a mailbox.
type EstimateResult struct {
	Mailbox string `json:"mailbox"`
	Count   int    `json:"count"`
}

func (r EstimateResult) String() string {
	return fmt.Sprintf("%s: %d pending", r.Mailbox, r.Count)
}

// NewEstimateCommand creates the estimate command.
func NewEstimateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <mailbox-server-id>",
		Short: "Ask how many changes are waiting for a mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			mb, err := s.mailbox(ctx, args[0])
			if err != nil {
				return err
			}
			if mb.SyncKey == model.InitialSyncKey {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("mailbox %s has not been synced; run airsync sync --once", mb.ServerID))
			}

			n, err := s.engine(model.NopCallback{}).Estimate(ctx, mb.ID)
			if err != nil {
				return wrapServerError("estimate failed", err)
			}
			return rootOpts.formatter(cmd).Success(EstimateResult{Mailbox: mb.ServerID, Count: n})
		},
	}
}
