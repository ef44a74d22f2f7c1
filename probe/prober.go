// Package probe extracts normalized media metadata with ffprobe.
package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/ffsimple/utils"
)

// ProbeError reports a file that could not be stat'ed or probed.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("couldn't read input %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Prober probes media files, caching successful results.
type Prober struct {
	runner Runner
	cache  *Cache
	logger hclog.Logger

	// BarOutput receives a progress bar while ProbeAll runs; nil disables it.
	BarOutput io.Writer
}

// New creates a prober. A nil cache disables caching, a nil logger is silent.
func New(runner Runner, cache *Cache, logger hclog.Logger) *Prober {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Prober{runner: runner, cache: cache, logger: logger.Named("probe")}
}

// Cache exposes the prober's cache so replaced files can be forgotten.
func (p *Prober) Cache() *Cache {
	return p.cache
}

// Probe returns cached metadata for path or probes it.
func (p *Prober) Probe(ctx context.Context, path string) (*Metadata, error) {
	if m, ok := p.cache.Get(path); ok {
		p.logger.Trace("cache hit", "path", path)
		return m, nil
	}
	return p.ProbeFresh(ctx, path)
}

// ProbeFresh probes path bypassing the cache lookup. The result still
// replaces any cached entry.
func (p *Prober) ProbeFresh(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ProbeError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	p.logger.Debug("probing", "path", path)
	data, err := p.runner.Probe(ctx, path)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	m := &Metadata{
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}
	if err := parse(data, m); err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	fillTags(m)

	p.cache.Put(m)
	return m, nil
}

// ProbeAll probes paths in parallel and returns results in input order.
// The first failure cancels the remaining probes.
func (p *Prober) ProbeAll(ctx context.Context, paths []string) ([]*Metadata, error) {
	results := make([]*Metadata, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	limit := Concurrency(ctx, paths)
	p.logger.Debug("probing inputs", "count", len(paths), "workers", limit)

	var bar *progressbar.ProgressBar
	if p.BarOutput != nil && len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(p.BarOutput),
			progressbar.OptionSetDescription("probing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			m, err := p.Probe(gctx, path)
			if err != nil {
				return err
			}
			results[i] = m
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return results, nil
}

// Concurrency is the probe worker limit: the logical CPU count, or 1 when
// any path lives on a network drive.
func Concurrency(ctx context.Context, paths []string) int {
	for _, path := range paths {
		if utils.IsNetworkDrive(path) {
			return 1
		}
	}
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return n
}
