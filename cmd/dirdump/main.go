package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dirarc/director/container"
	"github.com/dirarc/director/extract"
	"github.com/dirarc/director/log"
	"github.com/dirarc/director/resource"
)

var (
	outDir      string
	workerCount int
	ilsLimit    int64
	verbose     bool
)

func openManager(path string, logger log.Logger) (*container.Container, *resource.Manager, error) {
	c, err := container.Open(path, container.Options{Logger: logger, ILSLimit: ilsLimit})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	mgr, err := resource.NewManager(c, resource.Options{Logger: logger})
	if err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("resolve cast: %w", err)
	}
	return c, mgr, nil
}

func runExtract(cmd *cobra.Command, args []string) {
	inputPath := args[0]

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	runLogger, closeLog, err := extract.OpenRunLog(outDir, inputPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer closeLog()

	level := log.LevelWarn
	if verbose {
		level = log.LevelDebug
	}
	logger := log.NewFilter(runLogger, log.FilterLevel(level))
	helper := log.NewHelper(logger)

	c, mgr, err := openManager(inputPath, logger)
	if err != nil {
		helper.Errorf("%v", err)
		fmt.Println(err)
		os.Exit(1)
	}
	defer c.Close()

	report, err := extract.Run(context.Background(), mgr, &extract.NopEncoder{}, extract.DirSink{Dir: outDir}, extract.Options{
		WorkerCount: workerCount,
		ILSLimit:    ilsLimit,
		Logger:      logger,
	})
	if err != nil {
		helper.Errorf("extraction aborted: %v", err)
		fmt.Println(err)
		os.Exit(1)
	}

	if err := extract.WriteJournal(extract.DirSink{Dir: outDir}, mgr, report); err != nil {
		helper.Errorf("journal: %v", err)
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d members extracted, %d failed, journal written to %s\n",
		filepath.Base(inputPath), report.Succeeded, report.Failed, outDir)
}

func runInfo(cmd *cobra.Command, args []string) {
	logger := log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelWarn))
	c, mgr, err := openManager(args[0], logger)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer c.Close()

	cfg := mgr.MovieConfig()
	members := mgr.Members()
	fmt.Printf("director version: %d\n", cfg.DirectorVersion)
	fmt.Printf("stage: %dx%d\n", cfg.Stage.Width(), cfg.Stage.Height())
	fmt.Printf("members: %d\n", len(members))
	for _, m := range members {
		fmt.Printf("  %5d  %-12s %s\n", m.ID, m.TypeID, m.Name)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dirdump",
		Short: "A Director movie/cast container extractor",
		Long:  "dirdump reads RIFX and Afterburner Director containers, resolves cast members and Lingo scripts, and writes modern-format assets plus a JSON journal.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("dirdump version 0.1.0")
		},
	}

	extractCmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract every cast member to modern-format assets plus a JSON journal",
		Args:  cobra.ExactArgs(1),
		Run:   runExtract,
	}
	extractCmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory for extracted assets and journal")
	extractCmd.Flags().IntVarP(&workerCount, "workers", "w", 4, "member-processing worker pool size")
	extractCmd.Flags().Int64Var(&ilsLimit, "ils-limit", 10*1024*1024, "inline-segment cache entry size limit, in bytes")
	extractCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	infoCmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print the movie config and cast member list without extracting",
		Args:  cobra.ExactArgs(1),
		Run:   runInfo,
	}

	rootCmd.AddCommand(versionCmd, extractCmd, infoCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
