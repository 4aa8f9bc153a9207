// Package analyzer runs the thread dump parser and frame filter over
// single dump files, producing per-file thread records and statistics.
package analyzer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/thread-analysis/internal/parser/threaddump"
	"github.com/thread-analysis/pkg/compression"
	apperrors "github.com/thread-analysis/pkg/errors"
	"github.com/thread-analysis/pkg/filter"
	"github.com/thread-analysis/pkg/model"
	"github.com/thread-analysis/pkg/utils"
)

// Config holds configuration for the DumpAnalyzer.
type Config struct {
	// Filter drops stack frames by ignored package prefix. A nil filter
	// keeps every frame.
	Filter *filter.FrameFilter

	// ParserOptions configures the dump parser. Nil means defaults.
	ParserOptions *threaddump.ParserOptions

	// Logger is used for debug logging. If nil, logs are suppressed.
	Logger utils.Logger
}

// DumpAnalyzer analyzes one thread dump file at a time. It carries no
// cross-file state, so a single instance may analyze many files
// concurrently.
type DumpAnalyzer struct {
	parser *threaddump.Parser
	filter *filter.FrameFilter
	logger utils.Logger
}

// NewDumpAnalyzer creates a new DumpAnalyzer.
func NewDumpAnalyzer(cfg *Config) *DumpAnalyzer {
	if cfg == nil {
		cfg = &Config{}
	}
	f := cfg.Filter
	if f == nil {
		f = filter.NewFrameFilter()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = utils.NewNullLogger()
	}
	return &DumpAnalyzer{
		parser: threaddump.NewParser(cfg.ParserOptions),
		filter: f,
		logger: logger,
	}
}

// AnalyzeFile reads, decompresses if needed, and analyzes one dump file.
// Gzip and zstd compressed dumps are detected by magic bytes and unpacked
// transparently.
func (a *DumpAnalyzer) AnalyzeFile(ctx context.Context, path string, poolName string) (*model.FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "cannot read dump file", err)
	}

	if compression.DetectType(data) != compression.TypeNone {
		unpacked, err := compression.AutoDecompress(data)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeParseError, "cannot decompress dump file", err)
		}
		data = unpacked
	}

	return a.AnalyzeText(ctx, filepath.Base(path), threaddump.DecodeText(data), poolName)
}

// AnalyzeText analyzes already-decoded dump text. fileName identifies the
// source in the resulting PerFileStats.
func (a *DumpAnalyzer) AnalyzeText(ctx context.Context, fileName string, text string, poolName string) (*model.FileResult, error) {
	raws, err := a.parser.ParseText(ctx, text, poolName)
	if err != nil {
		return nil, err
	}

	records := make([]model.ThreadRecord, 0, len(raws))
	stateCounts := make(map[string]int)

	for _, raw := range raws {
		stack := a.filter.Apply(raw.Frames)
		if len(stack) == 0 {
			// Every frame was ignored: the record is discarded and does
			// not count toward the file's totals.
			a.logger.Debug("dropping fully-filtered thread (state=%s) in %s", raw.State, fileName)
			continue
		}
		records = append(records, model.ThreadRecord{State: raw.State, Stack: stack})
		stateCounts[raw.State] = stateCounts[raw.State] + 1
	}

	a.logger.Debug("analyzed %s: %d matched, %d kept", fileName, len(raws), len(records))

	return &model.FileResult{
		Records: records,
		Stats: model.PerFileStats{
			FileName:     fileName,
			TotalThreads: len(records),
			StateCounts:  stateCounts,
		},
	}, nil
}

// EmptyResult returns a FileResult for a file that produced no records,
// used when a dump file cannot be read but the run should continue.
func EmptyResult(fileName string) *model.FileResult {
	return &model.FileResult{
		Records: nil,
		Stats: model.PerFileStats{
			FileName:     fileName,
			TotalThreads: 0,
			StateCounts:  make(map[string]int),
		},
	}
}
