package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/metamirror/internal/naming"
	"github.com/backmassage/metamirror/internal/torrent"
	"github.com/backmassage/metamirror/internal/workspace"
)

// Downloader retrieves the descriptor. *Client implements it.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Logger is the minimal logging interface the fetcher needs.
type Logger interface {
	Info(string, ...interface{})
	Debug(string, ...interface{})
}

// Options describes one fetch.
type Options struct {
	DescriptorURL  string // HTTPS location of the .torrent file.
	DescriptorPath string // Where the descriptor is written, removed afterwards.
	Pattern        string // Swarm subdirectory selection.
	StagingDir     string // Client output directory, removed afterwards.
	ArtifactDir    string // Destination of the moved .gz artifacts.
}

// Result reports what a fetch moved into the artifact store.
type Result struct {
	DescriptorBytes int64
	Moved           []string // Destination paths, sorted.
}

// Fetcher runs the fetch stage.
type Fetcher struct {
	dl    Downloader
	swarm torrent.Swarm
	log   Logger
}

// NewFetcher wires a fetcher from its collaborators.
func NewFetcher(dl Downloader, swarm torrent.Swarm, log Logger) *Fetcher {
	return &Fetcher{dl: dl, swarm: swarm, log: log}
}

// Run downloads the descriptor, drives the swarm, moves every produced
// file ending in ".gz" into the artifact store, then deletes the staging
// tree and the descriptor. Producing nothing is not an error.
func (f *Fetcher) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result

	f.log.Info("Downloading torrent descriptor...")
	n, err := f.dl.Download(ctx, opts.DescriptorURL, opts.DescriptorPath)
	if err != nil {
		return res, fmt.Errorf("download descriptor: %w", err)
	}
	res.DescriptorBytes = n
	f.log.Debug("Descriptor: %s (%d bytes)", opts.DescriptorPath, n)

	f.log.Info("Downloading %s via torrent...", opts.Pattern)
	files, err := f.swarm.Fetch(ctx, opts.DescriptorPath, opts.Pattern, opts.StagingDir)
	if err != nil {
		return res, fmt.Errorf("torrent download: %w", err)
	}

	f.log.Info("Moving artifacts to %s...", opts.ArtifactDir)
	if err := os.MkdirAll(opts.ArtifactDir, 0o755); err != nil {
		return res, err
	}
	for _, src := range files {
		if !naming.IsArtifact(src) {
			f.log.Debug("Ignoring non-artifact %s", src)
			continue
		}
		dst := filepath.Join(opts.ArtifactDir, filepath.Base(src))
		if err := workspace.Move(src, dst); err != nil {
			return res, fmt.Errorf("move %s: %w", filepath.Base(src), err)
		}
		res.Moved = append(res.Moved, dst)
	}

	if err := os.RemoveAll(opts.StagingDir); err != nil {
		return res, fmt.Errorf("remove staging dir: %w", err)
	}
	if err := os.Remove(opts.DescriptorPath); err != nil && !os.IsNotExist(err) {
		return res, fmt.Errorf("remove descriptor: %w", err)
	}
	f.log.Info("Cleanup completed")
	return res, nil
}
