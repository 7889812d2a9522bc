package cli

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/harness"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file>",
		Short: "Print a WBXML document as indented text",
		Long: `Decode an ActiveSync WBXML document and print it in the fixture text
format used by test scenarios: one element per line as Page:Tag value.

Use "-" to read from stdin.

Example:
  airsync decode response.wbxml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read input", err)
			}

			text, err := harness.Dump(data)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to decode WBXML", err)
			}
			return rootOpts.formatter(cmd).Success(decoded(strings.TrimRight(text, "\n")))
		},
	}
}

// decoded is dumped WBXML; JSON output carries it as one string.
type decoded string

func (d decoded) String() string { return string(d) }
