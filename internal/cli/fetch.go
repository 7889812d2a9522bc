package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/store"
)

// FetchResult describes a downloaded attachment.
type FetchResult struct {
	AttachmentID int64  `json:"attachment_id"`
	FileName     string `json:"file_name"`
	Path         string `json:"path"`
}

func (r FetchResult) String() string {
	return fmt.Sprintf("Saved %s to %s", r.FileName, r.Path)
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <attachment-id>",
		Short: "Download an attachment",
		Long: `Download the attachment with the given local id into the data
directory. The file only appears once every byte has arrived.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid attachment id", err)
			}

			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			att, err := s.store.Attachment(ctx, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return WrapExitError(ExitCommandError, fmt.Sprintf("unknown attachment %d", id), err)
				}
				return WrapExitError(ExitFailure, "failed to load attachment", err)
			}

			out := rootOpts.formatter(cmd)
			eng := s.engine(newStatusPrinter(out))
			eng.RequestAttachment(att.MessageID, att.ID, att.Location)

			stop := onInterrupt(func() { eng.CancelAttachment(id) })
			defer stop()
			if err := eng.DownloadQueued(ctx); err != nil {
				return wrapServerError("download failed", err)
			}

			att, err = s.store.Attachment(ctx, id)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load attachment", err)
			}
			if att.ContentPath == "" {
				return NewExitError(ExitFailure, "download cancelled")
			}
			return out.Success(FetchResult{AttachmentID: att.ID, FileName: att.FileName, Path: att.ContentPath})
		},
	}
}
