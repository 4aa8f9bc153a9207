package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thread-analysis/internal/analyzer"
	"github.com/thread-analysis/internal/render"
	"github.com/thread-analysis/internal/service"
	"github.com/thread-analysis/pkg/config"
	"github.com/thread-analysis/pkg/filter"
	"github.com/thread-analysis/pkg/model"
	"github.com/thread-analysis/pkg/writer"
)

var (
	// Analyze command flags
	zipFile      string
	dumpDir      string
	poolName     string
	ignoreFile   string
	outputFile   string
	topStacks    int
	maxWorkers   int
	noColor      bool
	jsonOutput   bool
	perFileStats bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze thread dumps for thread pool saturation",
	Long: `Analyze a directory or zip archive of JVM thread dumps.

The analyze command scans every dump for threads belonging to the named
pool, groups identical stack traces, and ranks the groups by occurrence
count. The report includes:
  - Ranked stack traces with the highest count highlighted
  - Thread state distribution per stack
  - Per-file thread counts and state averages across files

Dumps compressed with gzip or zstd are unpacked transparently. When
neither --dir nor --zip is given, the tool prompts for an archive path.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a directory of dumps for the OrderWorker pool
  ` + binName + ` analyze -d ./dumps -p OrderWorker

  # Analyze a zip archive, top 10 stacks only
  ` + binName + ` analyze -z ./dumps.zip -p OrderWorker -n 10

  # Exclude framework frames from grouping
  ` + binName + ` analyze -d ./dumps -p OrderWorker --ignore-file ./ignore.txt

  # Machine-readable output
  ` + binName + ` analyze -d ./dumps -p OrderWorker --json`

	analyzeCmd.Flags().StringVarP(&zipFile, "zip", "z", "", "Zip archive of thread dumps")
	analyzeCmd.Flags().StringVarP(&dumpDir, "dir", "d", "", "Directory of thread dumps")
	analyzeCmd.Flags().StringVarP(&poolName, "pool", "p", "", "Thread pool name to search for")
	analyzeCmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "File of frame prefixes to exclude from grouping")
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report as JSON to this file")
	analyzeCmd.Flags().IntVarP(&topStacks, "top", "n", 0, "Limit the report to the N most frequent stacks (0 = all)")
	analyzeCmd.Flags().IntVar(&maxWorkers, "workers", 0, "Number of files analyzed concurrently (0 = auto)")
	analyzeCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON to stdout")
	analyzeCmd.Flags().BoolVar(&perFileStats, "per-file", false, "Include the per-file statistics table")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	conf := GetConfig()

	// Flags win; config fills the gaps.
	if poolName == "" {
		poolName = conf.Analysis.PoolName
	}
	if ignoreFile == "" {
		ignoreFile = conf.Analysis.IgnoreFile
	}
	if topStacks == 0 {
		topStacks = conf.Analysis.MaxStacks
	}
	if maxWorkers == 0 {
		maxWorkers = conf.Analysis.MaxWorkers
	}
	if !noColor {
		noColor = conf.Output.NoColor
	}
	if outputFile == "" {
		outputFile = conf.Output.JSONPath
	}

	// Fall back to prompting when the required inputs are missing.
	stdin := bufio.NewReader(cmd.InOrStdin())
	if zipFile == "" && dumpDir == "" {
		zipFile = promptLine(stdin, "Path to thread dump archive (zip): ")
		if zipFile == "" {
			return fmt.Errorf("either --dir or --zip is required")
		}
	}
	if poolName == "" {
		poolName = promptLine(stdin, "Thread pool name: ")
		if poolName == "" {
			return fmt.Errorf("a thread pool name is required")
		}
	}

	frameFilter := filter.NewFrameFilter(conf.Analysis.IgnoredPrefixes...)
	if ignoreFile != "" {
		ignoreList := config.LoadIgnoreList(ignoreFile, log)
		if !ignoreList.Loaded {
			log.Warn("ignore list %s not loaded, keeping all frames", ignoreList.Source)
		}
		frameFilter.AddIgnoredPrefixes(ignoreList.Prefixes)
	}

	a := analyzer.NewDumpAnalyzer(&analyzer.Config{
		Filter: frameFilter,
		Logger: log,
	})
	svc := service.New(a, service.Options{
		MaxWorkers: maxWorkers,
		MaxStacks:  topStacks,
	}, log)

	ctx := cmd.Context()
	var (
		report *model.AggregateReport
		err    error
	)
	if zipFile != "" {
		report, err = svc.ProduceReportFromArchive(ctx, zipFile, poolName)
	} else {
		report, err = svc.ProduceReport(ctx, dumpDir, poolName)
	}
	if err != nil {
		return err
	}

	if outputFile != "" {
		jw := writer.NewJSONWriter[*model.AggregateReport](writer.WithIndent[*model.AggregateReport]())
		if err := jw.WriteToFile(outputFile, report); err != nil {
			return err
		}
		log.Info("report written to %s", outputFile)
	}

	if jsonOutput {
		jw := writer.NewJSONWriter[*model.AggregateReport](writer.WithIndent[*model.AggregateReport]())
		return jw.Write(cmd.OutOrStdout(), report)
	}

	r := render.NewRenderer(cmd.OutOrStdout(), render.Options{
		NoColor:          noColor,
		ShowPerFileStats: perFileStats,
	})
	r.Render(report)
	return nil
}

// promptLine prints msg and reads one trimmed line from r. Returns an
// empty string on read failure.
func promptLine(r *bufio.Reader, msg string) string {
	fmt.Fprint(os.Stderr, msg)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
