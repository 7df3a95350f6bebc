// resultsview serves and inspects precomputed model evaluation results.
//
// Usage:
//
//	resultsview serve    [--addr=<host:port>] [--origin=<url> | --root=<dir>] [--dir=<folder> [--watch]]
//	resultsview check    [source flags] [--markdown] [--strict]
//	resultsview show     <artifact.csv|artifact.json> [source flags] [--markdown]
//	resultsview discover [source flags]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resultsview/internal/artifact"
	"resultsview/internal/config"
	"resultsview/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

// app carries the configuration resolved before any subcommand runs.
type app struct {
	cfg config.Config

	configPath string
	logLevel   string
	logFormat  string
	origin     string
	root       string
	dir        string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "resultsview",
		Short: "Browse precomputed model evaluation results",
		Long: "resultsview renders the CSV, JSON and image artifacts of an evaluation run\n" +
			"as a dashboard, and checks a results folder for missing files.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.Version = version

	f := cmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "Path to a YAML or JSON(C) config file")
	f.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	f.StringVar(&a.origin, "origin", "", "HTTP origin serving the results tree")
	f.StringVar(&a.root, "root", ".", "Local directory the results candidates are resolved against")
	f.StringVar(&a.dir, "dir", "", "Local results folder to load as if selected in the browser")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newDiscoverCmd(a))
	return cmd
}

// load reads the config file, applies explicitly set flags over it and
// configures logging.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadFromPath(a.configPath); err != nil {
			return err
		}
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if f.Changed("origin") {
		cfg.Origin = a.origin
	}
	if f.Changed("root") {
		cfg.Root = a.root
	}
	if f.Changed("dir") {
		cfg.Dir = a.dir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
	a.cfg = cfg
	return nil
}

// discover locates the results root. A missing root is not an error; the
// returned Remote is then marked undiscovered.
func (a *app) discover(ctx context.Context) (artifact.Remote, error) {
	r, err := artifact.Discover(ctx, a.cfg.Fetcher(), a.cfg.Candidates, logging.New("discover"))
	if err != nil && !errors.Is(err, artifact.ErrRootNotFound) {
		return r, fmt.Errorf("discover results root: %w", err)
	}
	return r, nil
}

// localUpload loads the --dir folder, or returns nil when none is set.
func (a *app) localUpload() (*artifact.Upload, error) {
	if a.cfg.Dir == "" {
		return nil, nil
	}
	u, err := artifact.LoadDir(a.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("load results folder: %w", err)
	}
	return u, nil
}

// openSession returns a session over the discovered root with the local
// folder, if any, layered on top.
func (a *app) openSession(ctx context.Context) (*artifact.Session, error) {
	remote, err := a.discover(ctx)
	if err != nil {
		return nil, err
	}
	s := artifact.NewSession(remote, artifact.WithLogger(logging.New("artifact")))
	u, err := a.localUpload()
	if err != nil {
		return nil, err
	}
	if u != nil {
		s.SetSource(u)
	}
	return s, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
