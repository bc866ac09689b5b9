package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/config"
	"github.com/bundlekit/bundlekit/internal/fs"
	"github.com/bundlekit/bundlekit/pkg/api"
)

type buildFlags struct {
	entries    []string
	outdir     string
	extensions []string
	sourceMap  bool
	verbose    bool
}

func main() {
	flags := &buildFlags{}

	root := &cobra.Command{
		Use:           "bundlekit",
		Short:         "An ECMAScript module bundler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&flags.entries, "entry", nil, "entry point (repeatable)")
	root.PersistentFlags().StringVar(&flags.outdir, "outdir", "", "output directory")
	root.PersistentFlags().StringSliceVar(&flags.extensions, "extension", nil, "extension probe order for extensionless imports")
	root.PersistentFlags().BoolVar(&flags.sourceMap, "sourcemap", false, "emit source maps")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose operational logging")

	root.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Bundle the entry points once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Bundle, then rebuild whenever a source file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flags)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// resolveOptions merges the config file (if any) with the command-line flags;
// flags win. The second result is the watch debounce window.
func resolveOptions(flags *buildFlags) (api.BuildOptions, time.Duration, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return api.BuildOptions{}, 0, err
	}

	options := api.BuildOptions{
		Outdir: filepath.Join(cwd, "dist"),
		Logger: newLogger(flags.verbose),
	}
	debounce := config.Default().WatchDebounce()

	if fileConfig, ok, err := config.LoadIfPresent(cwd); err != nil {
		return api.BuildOptions{}, 0, err
	} else if ok {
		options.EntryPoints = fileConfig.Entries
		options.Outdir = fileConfig.OutDir
		options.Extensions = fileConfig.Extensions
		options.SourceMap = fileConfig.SourceMap
		debounce = fileConfig.WatchDebounce()
	}

	if len(flags.entries) > 0 {
		options.EntryPoints = nil
		for _, entry := range flags.entries {
			absolute, err := filepath.Abs(entry)
			if err != nil {
				return api.BuildOptions{}, 0, err
			}
			options.EntryPoints = append(options.EntryPoints, absolute)
		}
	}
	if flags.outdir != "" {
		absolute, err := filepath.Abs(flags.outdir)
		if err != nil {
			return api.BuildOptions{}, 0, err
		}
		options.Outdir = absolute
	}
	if len(flags.extensions) > 0 {
		options.Extensions = flags.extensions
	}
	if flags.sourceMap {
		options.SourceMap = true
	}

	if len(options.EntryPoints) == 0 {
		return api.BuildOptions{}, 0, fmt.Errorf("no entry points: pass --entry or create %s", config.DefaultFileName)
	}
	return options, debounce, nil
}

func runBuild(ctx context.Context, flags *buildFlags) error {
	options, _, err := resolveOptions(flags)
	if err != nil {
		return err
	}

	fsys, err := fs.RealFS()
	if err != nil {
		return err
	}

	result, err := api.BuildWithFS(ctx, fsys, cache.New(), options)
	reportDiagnostics(result)
	if err != nil {
		return err
	}
	return writeOutputs(result, options.Logger)
}

func runWatch(ctx context.Context, flags *buildFlags) error {
	options, debounce, err := resolveOptions(flags)
	if err != nil {
		return err
	}

	fsys, err := fs.RealFS()
	if err != nil {
		return err
	}
	taskCache := cache.New()

	rebuild := func() {
		result, err := api.BuildWithFS(ctx, fsys, taskCache, options)
		reportDiagnostics(result)
		if err != nil {
			options.Logger.Error().Err(err).Msg("build failed")
			return
		}
		if err := writeOutputs(result, options.Logger); err != nil {
			options.Logger.Error().Err(err).Msg("write failed")
		}
	}

	watcher, err := fs.NewWatcher(debounce, func(changed []string) {
		for _, path := range changed {
			options.Logger.Info().Str("path", path).Msg("file changed")
			taskCache.Invalidate(path)
		}
		rebuild()
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, entry := range options.EntryPoints {
		dir := filepath.Dir(entry)
		if !watched[dir] {
			watched[dir] = true
			if err := watcher.AddTree(dir); err != nil {
				return err
			}
		}
	}

	rebuild()
	options.Logger.Info().Msg("watching for changes")
	<-ctx.Done()
	return nil
}

func reportDiagnostics(result api.BuildResult) {
	for _, message := range result.Warnings {
		printDiagnostic("warning", message)
	}
	for _, message := range result.Errors {
		printDiagnostic("error", message)
	}
}

func printDiagnostic(kind string, message api.Message) {
	if message.File == "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", kind, message.Text)
		return
	}
	fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n",
		message.File, message.Line, message.Column, kind, message.Text)
	if message.LineText != "" {
		fmt.Fprintln(os.Stderr, message.LineText)
	}
}

func writeOutputs(result api.BuildResult, log zerolog.Logger) error {
	for _, output := range result.OutputFiles {
		if err := os.MkdirAll(filepath.Dir(output.Path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(output.Path, output.Contents, 0o644); err != nil {
			return err
		}
		log.Info().Str("path", output.Path).Int("bytes", len(output.Contents)).Msg("wrote output")
	}
	return nil
}
