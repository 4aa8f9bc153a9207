package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thread-analysis/pkg/config"
	"github.com/thread-analysis/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configFile string

	cfg    *config.Config
	logger utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "thread-analysis",
	Short: "A JVM thread dump analysis tool",
	Long: `thread-analysis detects thread pool saturation from JVM thread dumps.

It scans a directory or zip archive of thread dumps for threads belonging
to a named pool, groups their stack traces, and ranks the groups by how
often they occur. Many threads of one pool parked on the same stack is
the signature of a saturated pool.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		// Setup logger based on config, verbose flag wins
		logLevel := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stderr)
		utils.SetGlobalLogger(logger)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: ./config.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Analyze a directory of thread dumps
  ` + binName + ` analyze -d ./dumps -p OrderWorker

  # Analyze a zip archive of thread dumps
  ` + binName + ` analyze -z ./dumps.zip -p OrderWorker

  # Write the report as JSON
  ` + binName + ` analyze -d ./dumps -p OrderWorker -o report.json`
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return utils.GetGlobalLogger()
	}
	return logger
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
