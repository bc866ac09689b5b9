// Package api is the public entry point for embedding the bundler. It wraps
// the internal orchestration behind a small options/result surface and keeps
// the internal packages free to change shape.
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/bundlekit/bundlekit/internal/bundler"
	"github.com/bundlekit/bundlekit/internal/cache"
	"github.com/bundlekit/bundlekit/internal/fs"
	"github.com/bundlekit/bundlekit/internal/logger"
)

type BuildOptions struct {
	// Absolute paths of the entry points, in output order
	EntryPoints []string

	// Absolute output directory used to form output paths. Build never writes
	// to disk itself; callers persist the returned files.
	Outdir string

	// Extension probe order for extensionless imports; empty means the
	// default order
	Extensions []string

	SourceMap bool

	// Operational logging; zerolog.Nop() disables it
	Logger zerolog.Logger
}

type Message struct {
	Text     string
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	LineText string
}

type OutputFile struct {
	Path     string
	Contents []byte
}

type BuildResult struct {
	Errors      []Message
	Warnings    []Message
	OutputFiles []OutputFile
}

// Build bundles the entry points and returns the rendered chunks. Diagnostics
// come back in the result; Build only returns an error for infrastructure
// failures like an unreadable entry point.
func Build(ctx context.Context, options BuildOptions) (BuildResult, error) {
	fsys, err := fs.RealFS()
	if err != nil {
		return BuildResult{}, err
	}
	return BuildWithFS(ctx, fsys, cache.New(), options)
}

// BuildWithFS is Build against an explicit file system and task cache.
// Incremental callers keep the cache across builds and invalidate changed
// paths between them.
func BuildWithFS(ctx context.Context, fsys fs.FS, taskCache *cache.TaskCache, options BuildOptions) (BuildResult, error) {
	log := logger.NewDeferLog()

	bundle, err := bundler.ScanBundle(ctx, log, fsys, taskCache, bundler.Options{
		Entries:      options.EntryPoints,
		AbsOutputDir: options.Outdir,
		Extensions:   options.Extensions,
		SourceMap:    options.SourceMap,
		Log:          options.Logger,
	})
	if err != nil {
		return resultFromMsgs(log.Done(), nil), err
	}

	outputs, err := bundle.Compile(ctx)
	if err != nil {
		return resultFromMsgs(log.Done(), nil), err
	}

	return resultFromMsgs(log.Done(), outputs), nil
}

func resultFromMsgs(msgs []logger.Msg, outputs []bundler.OutputFile) BuildResult {
	var result BuildResult
	for _, msg := range msgs {
		message := Message{Text: msg.Text}
		if msg.Location != nil {
			message.File = msg.Location.File
			message.Line = msg.Location.Line
			message.Column = msg.Location.Column
			message.LineText = msg.Location.LineText
		}
		if msg.Kind == logger.Error {
			result.Errors = append(result.Errors, message)
		} else {
			result.Warnings = append(result.Warnings, message)
		}
	}
	for _, output := range outputs {
		result.OutputFiles = append(result.OutputFiles, OutputFile{
			Path:     output.AbsPath,
			Contents: output.Contents,
		})
	}
	return result
}
