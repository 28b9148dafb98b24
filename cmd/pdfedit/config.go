package main

// Config holds the command-line configuration.
type Config struct {
	// Pages rendered at a time by preview.
	// Each worker parses its own copy of the document.
	Concurrency int

	// Input PDF.
	Filename string

	// JSON file of run edits: [{"id": "p0-r3", "text": "new"}].
	Edits string

	// Output PDF written by apply.
	Output string

	// Directory receiving preview PNGs.
	Directory string

	// Preview zoom in percent.
	Zoom int

	// Fraction of a run's height its cover is raised above the baseline.
	CoverAscent float64
}

var DefaultConfig = Config{
	Concurrency: 4,
	Zoom:        100,
	Directory:   "preview",
	CoverAscent: 0.8,
}
