package main

import (
	"github.com/abiiranathan/goflag"
)

// DefineFlags registers the subcommands. Each handler reports its error
// through fail.
func DefineFlags(config *Config, app *App, fail func(error)) *goflag.Context {
	fileFlag := goflag.Flag{
		FlagType:  goflag.FlagFilePath,
		Name:      "file",
		ShortName: "f",
		Value:     &config.Filename,
		Usage:     "The PDF file to edit",
		Required:  true,
	}
	editsFlag := goflag.Flag{
		FlagType:  goflag.FlagString,
		Name:      "edits",
		ShortName: "e",
		Value:     &config.Edits,
		Usage:     "JSON file of run edits",
		Required:  false,
	}

	ctx := goflag.NewContext()
	ctx.AddFlag(goflag.FlagInt, "concurrency", "c",
		&config.Concurrency,
		"No of pages rendered at once by preview",
		false, goflag.Min(1), goflag.Max(64))
	ctx.AddFlag(goflag.FlagFloat64, "ascent", "a",
		&config.CoverAscent,
		"Fraction of the text height erased above each baseline",
		false)

	ctx.AddSubCommand("runs", "Print the text runs of a PDF as JSON", func() {
		fail(app.Runs(*config))
	}).AddFlagPtr(&fileFlag)

	ctx.AddSubCommand("apply", "Apply run edits and write a new PDF", func() {
		fail(app.Apply(*config))
	}).AddFlagPtr(&fileFlag).
		AddFlagPtr(&editsFlag).
		AddFlag(goflag.FlagString, "output", "o", &config.Output, "The PDF file to write", true)

	ctx.AddSubCommand("preview", "Render every page to PNG", func() {
		fail(app.Preview(*config))
	}).AddFlagPtr(&fileFlag).
		AddFlagPtr(&editsFlag).
		AddFlag(goflag.FlagString, "directory", "d", &config.Directory, "The directory for PNG files", false).
		AddFlag(goflag.FlagInt, "zoom", "z", &config.Zoom, "Zoom in percent", false, goflag.Min(10), goflag.Max(500))

	return ctx
}
