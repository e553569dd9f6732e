// Command sheetetl loads the named tables of every workbook in a directory
// into one relational store per workbook.
//
//	sheetetl run [dir]        build <dir>/<name>.db for each *.xlsx in dir
//	sheetetl inspect <store>  print the tables of a SQLite store
//
// Exit codes: 0 success, 1 at least one file (or the run) failed, 2 usage or
// configuration error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sheetetl/internal/config"
	"sheetetl/internal/inspect"
	"sheetetl/internal/pipeline"
	"sheetetl/internal/storage"

	// register every backend with the storage factory; config picks one.
	_ "sheetetl/internal/storage/mssql"
	_ "sheetetl/internal/storage/postgres"
	_ "sheetetl/internal/storage/sqlite"
)

const (
	exitOK         = 0
	exitFailed     = 1
	exitUsage      = 2
	defaultJob     = "sheetetl"
	defaultEnvFile = ".env"
)

// appDeps are the side-effecting collaborators of runMain, replaced in tests.
type appDeps struct {
	loadEnvFile func(path string) error
	getenv      func(string) string
	newStore    func(ctx context.Context, cfg storage.Config) (storage.Store, error)
	initMetrics func(ctx context.Context, job, backend string, tags []string) (func(), error)
	display     pipeline.DisplayFn
	newRunID    func() string
}

func defaultDeps() appDeps {
	return appDeps{
		loadEnvFile: loadEnvFile,
		getenv:      os.Getenv,
		newStore:    storage.New,
		initMetrics: initMetrics,
		display:     inspect.Display,
		newRunID:    func() string { return uuid.NewString() },
	}
}

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr, defaultDeps()))
}

// exitError carries an exit code through cobra's RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error  { return &exitError{code: exitUsage, err: err} }
func failedErr(err error) error { return &exitError{code: exitFailed, err: err} }

// runMain builds the command tree, executes args and returns the exit code.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	root := newRootCmd(deps)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	// anything cobra reports itself (unknown command, bad flag, arg count)
	fmt.Fprintln(stderr, err)
	return exitUsage
}

type rootOpts struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd(deps appDeps) *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:           "sheetetl",
		Short:         "Load spreadsheet tables into relational stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "pipeline config JSON path (optional)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose stage logs")

	root.AddCommand(newRunCmd(opts, deps), newInspectCmd())
	return root
}

type runFlags struct {
	storageKind    string
	dsn            string
	workers        int
	noDisplay      bool
	password       string
	metricsBackend string
	validate       bool
}

func newRunCmd(root *rootOpts, deps appDeps) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Load every workbook in dir (default: config dir or .)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, root, f, args, deps)
			if err != nil {
				return usageErr(err)
			}

			issues := config.Validate(cfg)
			for _, iss := range issues {
				fmt.Fprintln(cmd.ErrOrStderr(), iss)
			}
			if config.HasErrors(issues) {
				return usageErr(fmt.Errorf("configuration is invalid"))
			}
			if f.validate {
				fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
				return nil
			}
			return runPipeline(cmd, root, cfg, deps)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.storageKind, "storage", "", "storage backend: sqlite, postgres or mssql")
	fl.StringVar(&f.dsn, "dsn", "", "connection string for server backends")
	fl.IntVar(&f.workers, "workers", 0, "workbooks processed concurrently")
	fl.BoolVar(&f.noDisplay, "no-display", false, "do not print each store after writing it")
	fl.StringVar(&f.password, "password", "", "password for encrypted workbooks")
	fl.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: datadog or none")
	fl.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	return cmd
}

// resolveConfig applies defaults, file, .env/environment and flags, in that
// order.
func resolveConfig(cmd *cobra.Command, root *rootOpts, f *runFlags, args []string, deps appDeps) (config.Config, error) {
	if err := deps.loadEnvFile(root.envFile); err != nil {
		return config.Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Load(root.configPath)
	if err != nil {
		return cfg, err
	}
	if cfg, err = config.ApplyEnv(cfg, deps.getenv); err != nil {
		return cfg, err
	}

	fl := cmd.Flags()
	if fl.Changed("storage") {
		cfg.Storage.Kind = f.storageKind
	}
	if fl.Changed("dsn") {
		cfg.Storage.DSN = f.dsn
	}
	if fl.Changed("workers") {
		cfg.Runtime.Workers = f.workers
	}
	if fl.Changed("no-display") {
		cfg.Runtime.Display = !f.noDisplay
	}
	if fl.Changed("password") {
		cfg.Workbook.Password = f.password
	}
	if fl.Changed("metrics-backend") {
		cfg.Metrics.Backend = f.metricsBackend
	}
	if len(args) == 1 {
		cfg.Dir = args[0]
	}
	return cfg, nil
}

func runPipeline(cmd *cobra.Command, root *rootOpts, cfg config.Config, deps appDeps) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	runID := deps.newRunID()
	logger := log.New(stderr, "run="+shortID(runID)+" ", log.LstdFlags|log.Lmsgprefix)

	tags := append(parseTags(cfg.Metrics.Tags), "run:"+runID)
	cleanup, err := deps.initMetrics(ctx, cfg.Metrics.Job, cfg.Metrics.Backend, tags)
	if err != nil {
		return failedErr(fmt.Errorf("init metrics: %w", err))
	}
	defer cleanup()

	store, err := deps.newStore(ctx, cfg.Storage)
	if err != nil {
		return failedErr(fmt.Errorf("open store: %w", err))
	}
	defer store.Close()

	p := &pipeline.Pipeline{
		Store:    store,
		Kind:     cfg.Storage.Kind,
		Workbook: cfg.Workbook,
		Out:      stdout,
	}
	if cfg.Runtime.Display && cfg.Storage.Kind == "sqlite" {
		p.Display = deps.display
	}
	if root.verbose {
		p.Logger = logger
		logger.Printf("stage=start dir=%s storage=%s workers=%d display=%t", cfg.Dir, cfg.Storage.Kind, cfg.Runtime.Workers, p.Display != nil)
	}

	r := &pipeline.Runner{Pipeline: p, Workers: cfg.Runtime.Workers}
	rep, err := r.RunDir(ctx, cfg.Dir)
	if err != nil {
		return failedErr(err)
	}

	// verbose runs already logged every file from inside the pipeline
	if !root.verbose {
		for _, fr := range rep.Files {
			switch {
			case fr.Err != nil:
				logger.Printf("file=%s status=%s err=%v", filepath.Base(fr.Path), fr.Status, fr.Err)
			case fr.Status == pipeline.StatusSkipped:
				logger.Printf("file=%s status=skipped reason=%s", filepath.Base(fr.Path), fr.Reason)
			}
		}
	}
	fmt.Fprintf(stdout, "files=%d ok=%d skipped=%d failed=%d\n",
		len(rep.Files), rep.Count(pipeline.StatusOK), rep.Count(pipeline.StatusSkipped), rep.Count(pipeline.StatusFailed))

	if n := len(rep.Errors()); n > 0 {
		return &exitError{code: exitFailed, err: fmt.Errorf("%d of %d files had errors", n, len(rep.Files))}
	}
	return nil
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <store.db>",
		Short: "Print the tables of a SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := inspect.Display(cmd.Context(), args[0], cmd.OutOrStdout()); err != nil {
				return failedErr(err)
			}
			return nil
		},
	}
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
