// Package service orchestrates the full analysis run: enumerating dump
// files, analyzing them in parallel, and aggregating the results into a
// single report.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/thread-analysis/internal/analyzer"
	"github.com/thread-analysis/internal/archive"
	"github.com/thread-analysis/internal/statistics"
	apperrors "github.com/thread-analysis/pkg/errors"
	"github.com/thread-analysis/pkg/model"
	"github.com/thread-analysis/pkg/parallel"
	"github.com/thread-analysis/pkg/utils"
)

// Options configures the analysis service.
type Options struct {
	// MaxWorkers bounds the number of files analyzed concurrently.
	// Zero means the pool default.
	MaxWorkers int

	// MaxStacks limits how many ranked stacks appear in the report.
	// Zero means no limit.
	MaxStacks int
}

// Service runs thread pool saturation analysis over directories or
// archives of thread dumps.
type Service struct {
	analyzer   *analyzer.DumpAnalyzer
	aggregator *statistics.Aggregator
	extractor  *archive.Extractor
	pool       *parallel.WorkerPool[string, *model.FileResult]
	logger     utils.Logger
}

// New creates a new Service.
func New(a *analyzer.DumpAnalyzer, opts Options, logger utils.Logger) *Service {
	if logger == nil {
		logger = utils.NewNullLogger()
	}
	if a == nil {
		a = analyzer.NewDumpAnalyzer(&analyzer.Config{Logger: logger})
	}

	poolCfg := parallel.DefaultPoolConfig()
	if opts.MaxWorkers > 0 {
		poolCfg = poolCfg.WithWorkers(opts.MaxWorkers)
	}

	var aggOpts []statistics.AggregatorOption
	if opts.MaxStacks > 0 {
		aggOpts = append(aggOpts, statistics.WithMaxStacks(opts.MaxStacks))
	}

	return &Service{
		analyzer:   a,
		aggregator: statistics.NewAggregator(aggOpts...),
		extractor:  archive.NewExtractor(logger),
		pool:       parallel.NewWorkerPool[string, *model.FileResult](poolCfg),
		logger:     logger,
	}
}

// ProduceReport analyzes every regular file in dir for threads belonging
// to the named pool and returns the aggregated report. Files are
// processed in lexicographic name order; a report over zero files or
// with no matching threads is a valid empty report, not an error.
func (s *Service) ProduceReport(ctx context.Context, dir string, poolName string) (*model.AggregateReport, error) {
	paths, err := listDumpFiles(dir)
	if err != nil {
		return nil, err
	}

	s.logger.Info("analyzing %d dump files in %s for pool %q", len(paths), dir, poolName)

	if len(paths) == 0 {
		return s.aggregator.Aggregate(nil), nil
	}

	taskResults := s.pool.Execute(ctx, paths, func(ctx context.Context, path string) (*model.FileResult, error) {
		return s.analyzer.AnalyzeFile(ctx, path, poolName)
	})

	results := make([]*model.FileResult, 0, len(taskResults))
	for _, tr := range taskResults {
		if tr.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// An unreadable file still counts as analyzed; the run
			// continues with an empty result for it.
			s.logger.Warn("skipping unreadable dump file %s: %v", tr.Input, tr.Err)
			results = append(results, analyzer.EmptyResult(filepath.Base(tr.Input)))
			continue
		}
		results = append(results, tr.Result)
	}

	return s.aggregator.Aggregate(results), nil
}

// ProduceReportFromArchive extracts a zip archive of thread dumps to a
// temporary directory, analyzes it, and cleans up the extraction.
func (s *Service) ProduceReportFromArchive(ctx context.Context, zipPath string, poolName string) (*model.AggregateReport, error) {
	dir, err := s.extractor.ExtractZip(zipPath)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	return s.ProduceReport(ctx, dir, poolName)
}

// listDumpFiles returns every regular file under dir, sorted by path.
// Archives commonly unpack into a wrapping folder, so the walk descends
// into subdirectories.
func listDumpFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("cannot read dump directory %s", dir), err)
	}
	sort.Strings(paths)
	return paths, nil
}
