package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/model"
	"github.com/roach88/airsync/internal/store"
)

// MessageResult describes a change made to one message.
type MessageResult struct {
	MessageID int64  `json:"message_id"`
	Mailbox   string `json:"mailbox"`
	Action    string `json:"action"`
	Uploaded  bool   `json:"uploaded"`
}

func (r MessageResult) String() string {
	s := fmt.Sprintf("Message %d %s (mailbox %s)", r.MessageID, r.Action, r.Mailbox)
	if !r.Uploaded {
		s += "; the server sees it on the next sync"
	}
	return s
}

// ChangeOptions holds flags shared by commands that edit a message locally.
type ChangeOptions struct {
	*RootOptions
	Local bool
}

// NewMarkReadCommand creates the mark-read command.
func NewMarkReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChangeOptions{RootOptions: rootOpts}
	var unread bool

	cmd := &cobra.Command{
		Use:   "mark-read <message-id>",
		Short: "Mark a message read or unread",
		Long: `Change a message's read flag and upload the change with a Sync of its
mailbox. With --local the change is only queued for the next sync.

Example:
  airsync mark-read 42
  airsync mark-read --unread 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "marked read"
			if unread {
				action = "marked unread"
			}
			return runChange(cmd, opts, args[0], action, func(ctx context.Context, st *store.Store, id int64) error {
				return st.MarkRead(ctx, id, !unread)
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "mark the message unread")
	cmd.Flags().BoolVar(&opts.Local, "local", false, "queue the change without syncing")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <message-id>",
		Short: "Delete a message",
		Long: `Delete a message locally and upload the deletion with a Sync of its
mailbox. The server moves it to Deleted Items. With --local the deletion
is only queued for the next sync.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChange(cmd, opts, args[0], "deleted", func(ctx context.Context, st *store.Store, id int64) error {
				return st.RemoveMessage(ctx, id)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Local, "local", false, "queue the deletion without syncing")
	return cmd
}

// runChange applies a local edit and, unless --local, syncs the message's
// mailbox so the edit reaches the server.
func runChange(cmd *cobra.Command, opts *ChangeOptions, arg, action string,
	apply func(ctx context.Context, st *store.Store, id int64) error) error {
	ctx := cmd.Context()
	s, err := opts.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	msg, mb, err := s.message(ctx, arg)
	if err != nil {
		return err
	}
	if err := apply(ctx, s.store, msg.ID); err != nil {
		return WrapExitError(ExitFailure, "failed to update message", err)
	}

	out := opts.formatter(cmd)
	res := MessageResult{MessageID: msg.ID, Mailbox: mb.ServerID, Action: action}
	if !opts.Local {
		if err := s.engine(newStatusPrinter(out)).SyncMailbox(ctx, mb.ID); err != nil {
			return wrapServerError("sync failed", err)
		}
		res.Uploaded = true
	}
	return out.Success(res)
}

// NewMoveCommand creates the move command.
func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <message-id> <mailbox>",
		Short: "Move a message to another mailbox",
		Long: `Move a message to another mailbox on the server. The mailbox is a
server id as listed by airsync folders, or a role: inbox, drafts, sent,
trash and so on.

Example:
  airsync move 42 9
  airsync move 42 trash`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			msg, _, err := s.message(ctx, args[0])
			if err != nil {
				return err
			}
			dst, err := s.mailboxOrRole(ctx, args[1])
			if err != nil {
				return err
			}
			if dst.ID == msg.MailboxID {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("message %d is already in mailbox %s", msg.ID, dst.ServerID))
			}

			if err := s.engine(model.NopCallback{}).MoveMessage(ctx, msg.ID, dst.ID); err != nil {
				return wrapServerError("move failed", err)
			}
			return rootOpts.formatter(cmd).Success(MessageResult{
				MessageID: msg.ID,
				Mailbox:   dst.ServerID,
				Action:    "moved",
				Uploaded:  true,
			})
		},
	}
}

// message finds a synced message of the session's account and its
// mailbox by local id.
func (s *session) message(ctx context.Context, arg string) (*model.Message, *model.Mailbox, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid message id", err)
	}
	msg, err := s.store.Message(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("unknown message %d", id), err)
		}
		return nil, nil, WrapExitError(ExitFailure, "failed to load message", err)
	}
	if msg.AccountID != s.account.ID {
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown message %d", id))
	}
	if msg.ServerID == "" {
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("message %d has not been synced", id))
	}
	mb, err := s.store.Mailbox(ctx, msg.MailboxID)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to load mailbox", err)
	}
	return msg, mb, nil
}
