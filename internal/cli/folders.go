package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/model"
)

// FolderInfo is one mailbox as listed by the folders command.
type FolderInfo struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Push     bool   `json:"push"`
	SyncKey  string `json:"sync_key"`
}

// FolderList renders as a table in text mode.
type FolderList []FolderInfo

func (l FolderList) String() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPUSH\tSYNC KEY")
	for _, f := range l {
		push := ""
		if f.Push {
			push = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.ServerID, f.Name, f.Type, push, f.SyncKey)
	}
	tw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func folderList(boxes []model.Mailbox) FolderList {
	out := make(FolderList, 0, len(boxes))
	for _, mb := range boxes {
		out = append(out, FolderInfo{
			ServerID: mb.ServerID,
			Name:     mb.DisplayName,
			Type:     mb.Type.String(),
			Push:     mb.IsPush(),
			SyncKey:  mb.SyncKey,
		})
	}
	return out
}

// NewFoldersCommand creates the folders command.
func NewFoldersCommand(rootOpts *RootOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Sync the folder hierarchy and list mailboxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rootOpts.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if !offline {
				eng := s.engine(model.NopCallback{})
				if err := eng.Negotiate(ctx); err != nil {
					return wrapServerError("failed to negotiate protocol", err)
				}
				if err := eng.SyncFolders(ctx); err != nil {
					return wrapServerError("folder sync failed", err)
				}
			}

			boxes, err := s.store.Mailboxes(ctx, s.account.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list mailboxes", err)
			}
			return rootOpts.formatter(cmd).Success(folderList(boxes))
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "list stored mailboxes without contacting the server")
	return cmd
}
