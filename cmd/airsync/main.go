// Command airsync is an Exchange ActiveSync mail client.
package main

import (
	"context"
	"os"

	"github.com/roach88/airsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
