package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/boundedsim/sim"
	"github.com/inference-sim/boundedsim/sim/trace"
)

var (
	// CLI flags for the engine
	items     int // Number of items to produce
	capacity  int // Capacity of the shared queue
	producers int // Number of producer goroutines
	consumers int // Number of consumer goroutines

	// CLI flags for the run
	repeat          int    // Number of runs on the same manager
	saveLogsFlag    bool   // Save the run log to a dated file
	metricsTextfile string // Prometheus textfile output path
	configPath      string // YAML run config
	logLevel        string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "boundedsim",
	Short: "Producer-consumer simulator around a bounded buffer",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the producer-consumer simulation",
	Example: `  boundedsim run --items 100 --capacity 10 --producers 2 --consumers 3
  boundedsim run --config run.yaml --save-logs`,
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("Error: %v", err)
		}
		wd, err := os.Getwd()
		if err != nil {
			logrus.Fatalf("Cannot determine working directory: %v", err)
		}

		if err := runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg, level, wd); err != nil {
			logrus.Fatalf("Error: Simulation failed - %v", err)
		}
	},
}

// resolveRunConfig starts from the defaults, applies the config file if one is
// given, then applies every flag the user set explicitly. Without a config
// file all flag values apply, including their defaults.
func resolveRunConfig(cmd *cobra.Command) (RunConfig, error) {
	cfg := defaultRunConfig()
	if configPath != "" {
		loaded, err := loadRunConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	apply := func(name string) bool {
		return configPath == "" || cmd.Flags().Changed(name)
	}
	if apply("items") {
		cfg.Items = items
	}
	if apply("capacity") {
		cfg.Capacity = capacity
	}
	if apply("producers") {
		cfg.Producers = producers
	}
	if apply("consumers") {
		cfg.Consumers = consumers
	}
	if apply("repeat") {
		cfg.Repeat = repeat
	}
	if apply("save-logs") {
		cfg.SaveLogs = saveLogsFlag
	}
	if apply("metrics-textfile") {
		cfg.MetricsTextfile = metricsTextfile
	}
	return cfg, cfg.Validate()
}

// runSimulation runs the configured simulation cfg.Repeat times on one
// manager, printing the timestamp-ordered log and a summary after each run.
// Logs are saved under workDir when cfg.SaveLogs is set.
func runSimulation(ctx context.Context, out io.Writer, cfg RunConfig, level logrus.Level, workDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The run log is captured in memory and printed once the workers are done,
	// so interleaved goroutine output never reaches the terminal directly.
	capture := newCaptureHook()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(level)
	logger.AddHook(capture)
	mainLog := logger.WithField("thread", mainThread)

	printBanner(out)
	fmt.Fprintln(out, "Logs")
	fmt.Fprintln(out, "====")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Buffer capacity: %d\n", cfg.Capacity)
	fmt.Fprintf(out, "Number of producers: %d\n", cfg.Producers)
	fmt.Fprintf(out, "Number of consumers: %d\n", cfg.Consumers)
	fmt.Fprintln(out)

	recorder := trace.NewRecorder()
	metrics := sim.NewMetrics()
	manager, err := sim.NewSimulationManager(cfg.SimConfig(),
		sim.WithLogger(mainLog),
		sim.WithObserver(sim.NewLogObserver(logger)),
		sim.WithObserver(recorder),
		sim.WithMetrics(metrics),
	)
	if err != nil {
		mainLog.Errorf("Validation error: %v", err)
		return errors.Wrap(err, "invalid input")
	}

	var previous []int
	for run := 1; run <= cfg.Repeat; run++ {
		capture.Reset()
		result, err := manager.Run(ctx)
		if err != nil {
			printLog(out, capture.Sorted())
			return err
		}

		events := recorder.ForRun(manager.RunID())
		if err := trace.Validate(events, cfg.Capacity, cfg.Items, cfg.Consumers); err != nil {
			mainLog.Errorf("Buffer state check failed: %v", err)
			return errors.Wrap(err, "buffer state check")
		}

		printLog(out, capture.Sorted())
		printSummary(out, cfg, result, trace.Summarize(events))

		ids := make([]int, len(result))
		for i, w := range result {
			ids[i] = w.ItemID
		}
		if previous != nil && !slices.Equal(previous, ids) {
			return errors.Errorf("run %d produced a different item order than run %d", run, run-1)
		}
		previous = ids

		if cfg.SaveLogs {
			dir, err := saveLogs(capture.Sorted(), workDir, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "File stored successfully in folder %s\n", dir)
		}
		if run < cfg.Repeat {
			fmt.Fprintln(out)
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return errors.Wrapf(err, "writing metrics to %s", cfg.MetricsTextfile)
		}
		logrus.Infof("Metrics written to %s", cfg.MetricsTextfile)
	}
	return nil
}

func printLog(out io.Writer, entries []logrus.Entry) {
	w := bufio.NewWriter(out)
	if err := writeEntries(w, entries, threadFormatter{}); err != nil {
		logrus.Warnf("Printing run log: %v", err)
	}
	_ = w.Flush()
}

func printSummary(out io.Writer, cfg RunConfig, result []sim.WorkItem, s *trace.Summary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Simulation Complete ===")
	fmt.Fprintf(out, "Items Produced: %d\n", s.Produced)
	fmt.Fprintf(out, "Items Consumed: %d\n", len(result))
	fmt.Fprintf(out, "Peak Buffer Usage: %d/%d\n", s.MaxDepth, cfg.Capacity)
	if len(result) == cfg.Items {
		fmt.Fprintln(out, "SUCCESS: All items processed successfully.")
	} else {
		fmt.Fprintln(out, "FAILURE: Item count mismatch!")
	}
}

// Execute runs the CLI root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().IntVar(&items, "items", 0, "Number of items to produce (allowed range: 1-100000)")
	runCmd.Flags().IntVar(&capacity, "capacity", 0, "Capacity of the shared queue (allowed range: 1-10000)")
	runCmd.Flags().IntVar(&producers, "producers", 1, "Number of producer goroutines (allowed range: 1-100)")
	runCmd.Flags().IntVar(&consumers, "consumers", 1, "Number of consumer goroutines (allowed range: 1-100)")

	runCmd.Flags().IntVar(&repeat, "repeat", 1, "Run the simulation this many times on the same manager")
	runCmd.Flags().BoolVar(&saveLogsFlag, "save-logs", false, "Save the simulation log to simulation_logs/YYYY/MM/DD.txt")
	runCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file after the runs")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML run config; flags set explicitly override it")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
