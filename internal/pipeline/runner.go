package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/metamirror/internal/catalog"
	"github.com/backmassage/metamirror/internal/columnar"
	"github.com/backmassage/metamirror/internal/config"
	"github.com/backmassage/metamirror/internal/decompress"
	"github.com/backmassage/metamirror/internal/display"
	"github.com/backmassage/metamirror/internal/fetch"
	"github.com/backmassage/metamirror/internal/journal"
	"github.com/backmassage/metamirror/internal/logging"
	"github.com/backmassage/metamirror/internal/metrics"
	"github.com/backmassage/metamirror/internal/torrent"
	"github.com/backmassage/metamirror/internal/workspace"
)

// Deps are the collaborators a run needs. Journal and Metrics may be nil.
type Deps struct {
	Downloader fetch.Downloader
	Swarm      torrent.Swarm
	Journal    *journal.Journal
	Metrics    *metrics.Recorder

	// Preflight, when set, runs before the fetch stage (dependency check).
	Preflight func(*config.Config) error
}

// runner carries one run's state through the stages.
type runner struct {
	cfg    *config.Config
	log    *logging.Logger
	deps   Deps
	layout config.Layout
	stats  *RunStats
	outs   []journal.Output
}

// Run executes stages in order and returns what happened. The first stage
// error ends the run; it is logged once and returned in RunStats.Err.
// command names the invocation in the journal ("run", "convert", ...).
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, deps Deps, command string, stages []Stage) RunStats {
	stats := RunStats{}
	r := &runner{cfg: cfg, log: log, deps: deps, layout: cfg.Layout(), stats: &stats}

	if deps.Journal != nil {
		run, err := deps.Journal.StartRun(ctx, command)
		if err != nil {
			log.Warn("Journal unavailable: %v", err)
			r.deps.Journal = nil
		} else {
			stats.RunID = run.ID
			log.Debug("Run %s", run.ID)
		}
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			log.Warn("Interrupted")
			stats.Failed, stats.Err = st, err
			break
		}
		if err := r.runStage(ctx, st); err != nil {
			stats.Failed, stats.Err = st, err
			break
		}
	}
	stats.Code = Classify(stats.Err)

	if stats.Err != nil {
		log.Error("An error occurred: %v", stats.Err)
	}
	r.finish(stats.Err)
	logSummary(log, &stats)
	return stats
}

// runStage times one stage and records its outcome.
func (r *runner) runStage(ctx context.Context, st Stage) error {
	r.log.Stage("%s", st)
	start := time.Now()
	r.outs = r.outs[:0]

	var err error
	switch st {
	case StagePrepare:
		err = r.prepare()
	case StageFetch:
		err = r.fetch(ctx)
	case StageDecompress:
		err = r.decompress(ctx)
	case StageConvert:
		err = r.convert(ctx)
	case StageRegister:
		err = r.register(ctx)
	default:
		err = fmt.Errorf("unknown stage %q", st)
	}
	finished := time.Now()
	elapsed := finished.Sub(start)

	r.stats.Stages = append(r.stats.Stages, StageResult{Stage: st, Duration: elapsed, Err: err})
	r.deps.Metrics.StageDone(string(st), elapsed, Classify(err))
	r.record(ctx, st, start, finished, err)

	if err == nil {
		r.log.Success("%s completed in %s", st, elapsed.Round(time.Millisecond))
	}
	return err
}

func (r *runner) prepare() error {
	dirs := r.layout.Dirs()
	if err := workspace.Prepare(dirs...); err != nil {
		return err
	}
	r.log.Info("Workspace ready: %s", strings.Join(dirs, ", "))
	return nil
}

func (r *runner) fetch(ctx context.Context) error {
	if r.deps.Preflight != nil {
		if err := r.deps.Preflight(r.cfg); err != nil {
			return fmt.Errorf("dependency check: %w", err)
		}
	}
	if r.deps.Downloader == nil || r.deps.Swarm == nil {
		return fmt.Errorf("fetch stage is not configured")
	}

	f := fetch.NewFetcher(r.deps.Downloader, r.deps.Swarm, r.log)
	res, err := f.Run(ctx, fetch.Options{
		DescriptorURL:  r.cfg.DescriptorURL,
		DescriptorPath: r.layout.DescriptorTmp,
		Pattern:        r.cfg.SelectPattern,
		StagingDir:     r.layout.StagingDir,
		ArtifactDir:    r.layout.ArtifactDir,
	})
	for _, p := range res.Moved {
		var size int64
		if fi, statErr := os.Stat(p); statErr == nil {
			size = fi.Size()
		}
		r.deps.Metrics.FileWritten(string(StageFetch), size)
		r.outs = append(r.outs, journal.Output{Stage: string(StageFetch), Path: p, Bytes: size})
		r.log.Debug("  %s (%s)", filepath.Base(p), display.FormatBytes(size))
	}
	r.stats.Moved += len(res.Moved)
	if err != nil {
		return err
	}
	if len(res.Moved) == 0 {
		r.log.Warn("No artifacts matched %s", r.cfg.SelectPattern)
	} else {
		r.log.Info("Moved %d artifact(s) to %s", len(res.Moved), r.layout.ArtifactDir)
	}
	return nil
}

func (r *runner) decompress(ctx context.Context) error {
	r.log.Info("Decompressing %s -> %s", r.layout.ArtifactDir, r.layout.DocumentDir)
	_, err := decompress.Run(ctx, r.layout.ArtifactDir, r.layout.DocumentDir, func(res decompress.Result) {
		r.stats.Documents++
		r.stats.Lines += res.Lines
		r.stats.OutputBytes += res.Bytes
		r.deps.Metrics.FileWritten(string(StageDecompress), res.Bytes)
		r.outs = append(r.outs, journal.Output{
			Stage: string(StageDecompress), Path: res.Dest, Rows: res.Lines, Bytes: res.Bytes,
		})
		r.log.Info("  %s: %s lines, %s", filepath.Base(res.Dest),
			display.FormatCount(res.Lines), display.FormatBytes(res.Bytes))
	})
	return err
}

func (r *runner) convert(ctx context.Context) error {
	r.log.Info("Converting %s -> %s (%s rows per batch)",
		r.layout.DocumentDir, r.layout.ColumnarDir, display.FormatCount(int64(r.cfg.ChunkSize)))
	opts := columnar.Options{ChunkSize: r.cfg.ChunkSize, Suffixes: r.cfg.DocumentSuffixes}
	start, before := time.Now(), r.stats.Rows
	defer func() {
		rows := r.stats.Rows - before
		r.log.Debug("Converted %s rows (%s)", display.FormatCount(rows),
			display.FormatRate(rows, time.Since(start).Seconds(), "rows"))
	}()
	_, err := columnar.Run(ctx, r.layout.DocumentDir, r.layout.ColumnarDir, opts, func(res columnar.Result) {
		r.stats.Batches++
		r.stats.Rows += res.Rows
		r.stats.OutputBytes += res.Bytes
		r.deps.Metrics.FileWritten(string(StageConvert), res.Bytes)
		r.deps.Metrics.RowsWritten(res.Type, res.Rows)
		r.outs = append(r.outs, journal.Output{
			Stage: string(StageConvert), Path: res.Path, Rows: res.Rows, Bytes: res.Bytes,
		})
		r.log.Info("  %s: %s rows, %d columns, %s", filepath.Base(res.Path),
			display.FormatCount(res.Rows), res.Columns, display.FormatBytes(res.Bytes))
	})
	return err
}

func (r *runner) register(ctx context.Context) error {
	cat, err := catalog.Open(r.layout.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	binding := catalog.BindFirstFile
	if r.cfg.ViewBinding == config.ViewBindGlob {
		binding = catalog.BindGlob
	}
	_, err = cat.Register(ctx, r.layout.ColumnarDir, binding, func(reg catalog.Registration) {
		r.stats.Views++
		r.log.Debug("  view %s <- %s", reg.View, reg.Source)
	})
	if err != nil {
		return err
	}
	r.log.Info("Registered %d view statement(s) in %s", r.stats.Views, r.layout.CatalogPath)
	return nil
}

// record writes a stage event and its outputs to the journal. Journal
// failures are logged, never fatal.
func (r *runner) record(ctx context.Context, st Stage, start, finished time.Time, stageErr error) {
	j := r.deps.Journal
	if j == nil {
		return
	}
	ev := journal.StageEvent{Stage: string(st), StartedAt: start, FinishedAt: finished, Status: journal.StatusOK}
	if stageErr != nil {
		ev.Status, ev.Error = journal.StatusFailed, stageErr.Error()
	}
	// Recording must survive an interrupted stage.
	ctx = context.WithoutCancel(ctx)
	if err := j.RecordStage(ctx, r.stats.RunID, ev); err != nil {
		r.log.Warn("Journal: %v", err)
		return
	}
	if err := j.RecordOutputs(ctx, r.stats.RunID, r.outs); err != nil {
		r.log.Warn("Journal: %v", err)
	}
}

func (r *runner) finish(runErr error) {
	r.deps.Metrics.RunDone(runErr == nil, time.Now())
	if j := r.deps.Journal; j != nil {
		if err := j.FinishRun(context.Background(), r.stats.RunID, runErr, Classify(runErr)); err != nil {
			r.log.Warn("Journal: %v", err)
		}
	}
	if err := r.deps.Metrics.WriteFile(r.cfg.MetricsFile); err != nil {
		r.log.Warn("Metrics: %v", err)
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	if stats.OK() {
		log.Success("Data processing complete in %s", stats.Elapsed().Round(time.Millisecond))
	} else {
		log.Warn("Stopped at %s (%s) after %s", stats.Failed, stats.Code, stats.Elapsed().Round(time.Millisecond))
	}
	log.Info("Summary report:")
	if stats.Moved > 0 {
		log.Info("  Artifacts fetched: %d", stats.Moved)
	}
	log.Info("  Documents: %d (%s lines)", stats.Documents, display.FormatCount(stats.Lines))
	log.Info("  Batches: %d (%s rows)", stats.Batches, display.FormatCount(stats.Rows))
	log.Info("  Views: %d", stats.Views)
	log.Info("  Bytes written: %s", display.FormatBytes(stats.OutputBytes))
}
