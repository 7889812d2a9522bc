package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/transport"
)

// VersionsResult lists the server's protocol versions and the one this
// client would use.
type VersionsResult struct {
	Server   []string `json:"server"`
	Selected string   `json:"selected"`
}

func (r VersionsResult) String() string {
	return fmt.Sprintf("Server versions: %s\nSelected: %s", strings.Join(r.Server, ", "), r.Selected)
}

// NewVersionsCommand creates the versions command.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "Show the protocol versions the server supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rootOpts.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			versions, err := s.client.Options(cmd.Context())
			if err != nil {
				return wrapServerError("failed to query server", err)
			}
			return rootOpts.formatter(cmd).Success(VersionsResult{
				Server:   versions,
				Selected: transport.Negotiate(versions),
			})
		},
	}
}
