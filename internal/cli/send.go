package cli

import (
	"github.com/spf13/cobra"
)

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Send queued outgoing mail",
		Long: `Send every message waiting in the outbox once.

Messages the server refuses are marked as failed and not retried. A
network failure leaves the remaining messages queued for the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			sender := s.sender(newStatusPrinter(rootOpts.formatter(cmd)))
			if err := sender.SendPending(ctx, s.account.ID); err != nil {
				return wrapServerError("send failed", err)
			}
			return nil
		},
	}
}
