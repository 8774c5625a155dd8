package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/metamirror/internal/check"
	"github.com/backmassage/metamirror/internal/config"
	"github.com/backmassage/metamirror/internal/display"
	"github.com/backmassage/metamirror/internal/fetch"
	"github.com/backmassage/metamirror/internal/journal"
	"github.com/backmassage/metamirror/internal/logging"
	"github.com/backmassage/metamirror/internal/metrics"
	"github.com/backmassage/metamirror/internal/pipeline"
	"github.com/backmassage/metamirror/internal/torrent"
)

// app is the bootstrapped state shared by the subcommands.
type app struct {
	cfg    config.Config
	log    *logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// bootstrap resolves configuration, opens the logger, prints the banner and
// installs the signal handler.
func bootstrap(cmd *cobra.Command) (*app, error) {
	// Phase 1: the logger doesn't exist yet, so errors go back to main and
	// are printed to stderr there.
	cfg, err := overrides.Resolve()
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}

	// Phase 2: all output goes through log from here on.
	display.PrintBanner(cmd.OutOrStdout(), version)

	// Phase 3: cancel on SIGINT/SIGTERM so stages stop between files.
	ctx, cancel := context.WithCancel(cmd.Context())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping after the current file...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return &app{cfg: cfg, log: log, ctx: ctx, cancel: cancel}, nil
}

func (a *app) close() {
	a.cancel()
	a.log.Close()
}

// deps wires the production collaborators. The returned cleanup closes the
// journal.
func (a *app) deps(cmd *cobra.Command) (pipeline.Deps, func()) {
	d := pipeline.Deps{
		Downloader: fetch.NewClient(a.cfg.HTTPTimeout.Std(), "metamirror/"+version),
		Swarm: &torrent.WebTorrent{
			Client:  a.cfg.TorrentClient,
			Verbose: a.cfg.Verbose,
			Output:  cmd.ErrOrStderr(),
		},
		Preflight: check.CheckDeps,
	}
	if a.cfg.MetricsFile != "" {
		d.Metrics = metrics.New(version)
	}

	cleanup := func() {}
	if path := a.cfg.Journal(); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			a.log.Warn("Journal disabled: %v", err)
		} else {
			d.Journal = j
			cleanup = func() { j.Close() }
		}
	}
	return d, cleanup
}

// runStages runs stages and applies the exit policy: a failed run is
// already logged, so it only turns into an exit status under --strict.
func (a *app) runStages(cmd *cobra.Command, command string, stages []pipeline.Stage) error {
	a.log.Info("=== metamirror %s (%s) ===", version, commit)
	a.log.Info("Workspace: %s", a.cfg.DataDir)
	a.log.Info("Starting data processing pipeline...")

	d, cleanup := a.deps(cmd)
	defer cleanup()

	stats := pipeline.Run(a.ctx, &a.cfg, a.log, d, command, stages)
	if stats.Err != nil && a.cfg.Strict {
		return &exitError{code: exitFailed}
	}
	if stats.Err == nil {
		a.log.Success("Data processing complete! The catalog is ready at %s", a.cfg.Layout().CatalogPath)
	}
	return nil
}

// errorf is a shorthand for an exitFailed error with a message.
func errorf(format string, args ...any) error {
	return &exitError{code: exitFailed, err: fmt.Errorf(format, args...)}
}
