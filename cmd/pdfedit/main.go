// Command pdfedit lists, edits and previews the text runs of a PDF.
//
//	pdfedit runs -f in.pdf
//	pdfedit apply -f in.pdf -e edits.json -o out.pdf
//	pdfedit preview -f in.pdf -e edits.json -d out -z 150
package main

import (
	"log/slog"
	"os"

	"github.com/wudi/pdfedit/observability"
)

// Default configuration for the CLI
var config = &DefaultConfig

func main() {
	base := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger := observability.NewSlogLogger(base).With(observability.String("cmd", "pdfedit"))
	app := &App{Logger: logger, Stdout: os.Stdout}

	fail := func(err error) {
		if err != nil {
			logger.Error("command failed", observability.Error("error", err))
			os.Exit(1)
		}
	}

	ctx := DefineFlags(config, app, fail)
	subcmd, err := ctx.Parse(os.Args)
	if err != nil {
		logger.Error("invalid arguments", observability.Error("error", err))
		os.Exit(2)
	}
	if subcmd == nil {
		ctx.PrintUsage(os.Stdout)
		os.Exit(1)
	}
	subcmd.Handler()
}
