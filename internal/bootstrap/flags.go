// Package bootstrap builds the nodupe command tree.
package bootstrap

import (
	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns the flags shared by every command.
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=nd.key=value",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Report skipped entries and copy the debug log to stderr",
		},
	}
}

// runFlags returns the flags controlling a deduplication run. They are also
// read by the path command for the naming options.
func runFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Directory whose files are deduplicated (default: recordings)",
		},
		&urfavecli.StringFlag{
			Name:  "marker",
			Usage: "Text inserted before the extension of output names",
		},
		&urfavecli.StringFlag{
			Name:  "fallback",
			Usage: "Suffix appended to output names without an extension",
		},
		&urfavecli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Report format: text, json or table",
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Colour palette of the table report",
		},
		&urfavecli.StringSliceFlag{
			Name:  "include",
			Usage: "Only process names matching this glob (repeatable)",
		},
		&urfavecli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Skip names matching this glob (repeatable)",
		},
		&urfavecli.BoolFlag{
			Name:  "skip-binary",
			Usage: "Skip files whose content is not text",
		},
		&urfavecli.BoolFlag{
			Name:  "skip-generated",
			Usage: "Skip files that look like earlier outputs",
		},
		&urfavecli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "Count lines and duplicates without writing outputs",
		},
		&urfavecli.BoolFlag{
			Name:  "no-atomic",
			Usage: "Write outputs in place instead of through a temp file",
		},
		&urfavecli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Keep running and re-process files when they change",
		},
		&urfavecli.DurationFlag{
			Name:  "watch-debounce",
			Usage: "Quiet period before a changed file is re-processed",
		},
	}
}
