package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/airsync/internal/engine"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Once     bool
	NoOutbox bool
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync mail and wait for changes",
		Long: `Sync the folder hierarchy and every push mailbox, send the outbox, then
wait on the server for changes and repeat until interrupted.

With --once a single pass is made and the command exits.

Example:
  airsync sync --once
  airsync sync --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Once, "once", false, "make one pass and exit")
	cmd.Flags().BoolVar(&opts.NoOutbox, "no-outbox", false, "do not send queued mail")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	s, err := opts.openSession(parentCtx)
	if err != nil {
		return err
	}
	defer s.Close()

	out := opts.formatter(cmd)
	cb := newStatusPrinter(out)
	var extra []engine.Option
	if !opts.NoOutbox {
		extra = append(extra, engine.WithOutbox(s.sender(cb)))
	}
	eng := s.engine(cb, extra...)

	if opts.Once {
		if err := eng.RunOnce(parentCtx); err != nil {
			return wrapServerError("sync failed", err)
		}
		return nil
	}

	stop := onInterrupt(eng.Stop)
	defer stop()

	out.VerboseLog("Syncing %s on %s. Press Ctrl-C to stop.", s.account.User, s.account.Host)
	if err := eng.Run(parentCtx); err != nil && !engine.IsStopped(err) {
		return wrapServerError("sync failed", err)
	}

	slog.Info("sync stopped")
	return nil
}

// onInterrupt calls fn once on SIGINT or SIGTERM. The returned stop
// function ends the watch.
func onInterrupt(fn func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			fn()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}
