package cli

import (
	"flag"
	"fmt"
)

const versionString = "1.0.0"
const defaultConfigPath = "./gradledeps.toml"

type cliOptions struct {
	configPath string
	batch      bool
	watch      bool
	ui         bool
	history    bool
	tsv        string
	mermaid    string
	noLabel    bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("gradledeps", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.batch, "batch", false, "Treat each subdirectory of the given paths as a separate project")
	fs.BoolVar(&opts.watch, "watch", false, "Rescan when build files change")
	fs.BoolVar(&opts.ui, "ui", false, "Browse modules in a terminal UI (implies --watch)")
	fs.BoolVar(&opts.history, "history", false, "Record scans in the history database and report changes")
	fs.StringVar(&opts.tsv, "tsv", "", "Write per-module dependencies as TSV to this path")
	fs.StringVar(&opts.mermaid, "mermaid", "", "Write the module include diagram to this path")
	fs.BoolVar(&opts.noLabel, "no-label", false, "Do not write the label file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	if opts.ui {
		opts.watch = true
	}
	return opts, nil
}

func validateModes(opts cliOptions) error {
	if opts.batch && opts.watch {
		return fmt.Errorf("--batch cannot be combined with --watch or --ui")
	}
	if opts.watch && len(opts.args) > 1 {
		return fmt.Errorf("watch mode accepts a single directory, got %d", len(opts.args))
	}
	return nil
}
