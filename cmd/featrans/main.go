// Package main is the featrans CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/featrans/internal/cli"
	"github.com/hyperjump/featrans/internal/config"
	"github.com/hyperjump/featrans/internal/dataset"
	"github.com/hyperjump/featrans/internal/engine"
	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
	"github.com/hyperjump/featrans/internal/server"
	"github.com/hyperjump/featrans/internal/storage"
	"github.com/hyperjump/featrans/internal/watcher"
	"github.com/hyperjump/featrans/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/featrans/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory; if that exists it is used instead.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "init":
		runInit()
	case "discover":
		runDiscover()
	case "transform":
		runTransform()
	case "summary":
		runSummary()
	case "name":
		runName()
	case "snapshots":
		runSnapshots()
	case "serve", "server":
		runServe()
	case "version", "--version", "-v":
		fmt.Printf("featrans version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// snapshotFlags are the flags shared by every command that loads a discovered engine.
type snapshotFlags struct {
	config   *string
	snapshot *string
	id       *string
	latest   *bool
	debug    *bool
}

func addSnapshotFlags(fs *flag.FlagSet) *snapshotFlags {
	return &snapshotFlags{
		config:   fs.String("config", defaultConfigPath, "config file path"),
		snapshot: fs.String("snapshot", "", "snapshot file (default: storage.snapshot_path)"),
		id:       fs.String("id", "", "load the snapshot with this id from the catalogue"),
		latest:   fs.Bool("latest", false, "load the latest catalogue snapshot named storage.snapshot_name"),
		debug:    fs.Bool("debug", false, "enable debug logging"),
	}
}

// setup loads the config and creates the logger. It exits on failure.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger
}

func newEngine(cfg *config.Config, logger *zap.Logger) *engine.Engine {
	return engine.New(
		engine.WithLogger(logger),
		engine.WithCacheSize(cfg.Engine.CacheSizeOrDefault()),
	)
}

// openData reads the data file named by override or, when empty, by the config.
func openData(cfg *config.Config, override string) (*dataset.Frame, error) {
	path := cfg.Data.Path
	if override != "" {
		path = override
	}
	if path == "" {
		return nil, errors.New("no data file: set data.path or pass -data")
	}
	return dataset.Open(path, dataset.Format(cfg.Data.Format), cfg.Data.Sheet)
}

// loadEngine restores a discovered engine from the catalogue or a snapshot file
// and applies the configured output layout. The returned info is nil for files.
func loadEngine(ctx context.Context, cfg *config.Config, f *snapshotFlags, logger *zap.Logger) (*engine.Engine, *storage.SnapshotInfo, error) {
	var (
		snap *storage.Snapshot
		info *storage.SnapshotInfo
		err  error
	)
	switch {
	case *f.id != "" || *f.latest:
		if cfg.Storage.DatabasePath == "" {
			return nil, nil, errors.New("storage.database_path is not set")
		}
		store, openErr := storage.NewSQLiteSnapshots(cfg.Storage.DatabasePath)
		if openErr != nil {
			return nil, nil, openErr
		}
		defer store.Close()
		if *f.id != "" {
			snap, err = store.Get(ctx, *f.id)
			if err == nil {
				info, err = findSnapshotInfo(ctx, store, *f.id)
			}
		} else {
			snap, info, err = store.Latest(ctx, cfg.Storage.SnapshotName)
		}
	default:
		snap, err = storage.LoadFile(resolveSnapshotPath(cfg, *f.snapshot))
	}
	if err != nil {
		return nil, nil, err
	}

	eng := newEngine(cfg, logger)
	if err := eng.Restore(snap); err != nil {
		return nil, nil, err
	}
	eng.SetIndexFrom(cfg.Engine.IndexFrom)
	if err := eng.SetColumns(cfg.Engine.Columns); err != nil {
		return nil, nil, err
	}
	return eng, info, nil
}

func findSnapshotInfo(ctx context.Context, store storage.SnapshotStore, id string) (*storage.SnapshotInfo, error) {
	infos, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.ID == id {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, id)
}

// resolveSnapshotPath returns the flag value when set, else the configured path.
func resolveSnapshotPath(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Storage.SnapshotPath
}

// textSeparator is the term separator written for inferred text columns.
const textSeparator = ",| "

// inferSpecs guesses a transformer for every column of store. label names the
// label column; columns whose non-blank cells all parse as numbers become
// min-max normalized numeric columns, cells containing separators make text
// columns and everything else is categorical.
func inferSpecs(store dataset.ColumnStore, label string) []models.ColumnSpec {
	sep := regexp.MustCompile(textSeparator)
	specs := make([]models.ColumnSpec, 0, len(store.Columns()))
	for _, name := range store.Columns() {
		if name == label {
			specs = append(specs, models.ColumnSpec{Column: name, Kind: models.KindLabel})
			continue
		}
		values, _ := store.Column(name)
		numeric, text, seen := true, false, false
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
			if sep.MatchString(v) {
				text = true
			}
		}
		switch {
		case seen && numeric:
			specs = append(specs, models.ColumnSpec{Column: name, Kind: models.KindNumeric, NormType: normalizer.TypeMinMax})
		case text:
			specs = append(specs, models.ColumnSpec{Column: name, Kind: models.KindText, Extra: textSeparator})
		default:
			specs = append(specs, models.ColumnSpec{Column: name, Kind: models.KindCategory})
		}
	}
	return specs
}

// exampleSpecs are written by init when no data file is given.
var exampleSpecs = []models.ColumnSpec{
	{Column: "label", Kind: models.KindLabel},
	{Column: "title", Kind: models.KindText, NormType: normalizer.TypeMinMax, Extra: textSeparator},
	{Column: "price", Kind: models.KindNumeric, NormType: normalizer.TypeMinMax},
	{Column: "city", Kind: models.KindCategory},
}

// newInitConfig builds a complete, valid config around specs.
func newInitConfig(specs []models.ColumnSpec, dataPath string) (*config.Config, error) {
	cacheSize := config.DefaultCacheSize
	cfg := &config.Config{
		Engine: config.EngineConfig{
			IndexFrom:    1,
			CacheSize:    &cacheSize,
			Transformers: specs,
		},
		Data: config.DataConfig{Path: dataPath},
	}
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// writeInitConfig saves cfg to path, refusing to replace an existing file unless force is set.
func writeInitConfig(path string, cfg *config.Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	out := fs.String("out", "config.yaml", "config file to write")
	dataPath := fs.String("data", "", "data file to infer transformers from")
	label := fs.String("label", "label", "label column, used with -data")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	specs := exampleSpecs
	data := ""
	if *dataPath != "" {
		frame, err := dataset.Open(*dataPath, "", "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read data: %v\n", err)
			os.Exit(1)
		}
		specs = inferSpecs(frame, *label)
		if data, err = filepath.Abs(*dataPath); err != nil {
			data = *dataPath
		}
	}
	cfg, err := newInitConfig(specs, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := writeInitConfig(*out, cfg, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s (%d columns)\n", *out, len(specs))
}

func runDiscover() {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dataPath := fs.String("data", "", "data file (default: data.path)")
	out := fs.String("out", "", "snapshot file to write (default: storage.snapshot_path)")
	name := fs.String("name", "", "catalogue name (default: storage.snapshot_name)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	frame, err := openData(cfg, *dataPath)
	if err != nil {
		logger.Fatal("Failed to read data", zap.Error(err))
	}
	eng := newEngine(cfg, logger)
	if err := eng.Configure(cfg.Engine.Transformers, cfg.Engine.IndexFrom, cfg.Engine.Columns); err != nil {
		logger.Fatal("Invalid engine configuration", zap.Error(err))
	}
	if err := eng.Discover(frame); err != nil {
		logger.Fatal("Discovery failed", zap.Error(err))
	}

	path := resolveSnapshotPath(cfg, *out)
	if err := eng.Save(path); err != nil {
		logger.Fatal("Failed to save snapshot", zap.String("path", path), zap.Error(err))
	}
	logger.Info("snapshot saved", zap.String("path", path))

	if cfg.Storage.DatabasePath != "" {
		catalogueName := cfg.Storage.SnapshotName
		if *name != "" {
			catalogueName = *name
		}
		if err := putSnapshot(context.Background(), cfg.Storage.DatabasePath, catalogueName, eng); err != nil {
			logger.Fatal("Failed to store snapshot", zap.Error(err))
		}
	}

	summary, err := eng.Summary()
	if err != nil {
		logger.Fatal("Summary failed", zap.Error(err))
	}
	fmt.Println(summary)
}

func putSnapshot(ctx context.Context, dbPath, name string, eng *engine.Engine) error {
	store, err := storage.NewSQLiteSnapshots(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	snap, err := eng.Snapshot()
	if err != nil {
		return err
	}
	info, err := store.Put(ctx, name, snap)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot stored: %s (%s)\n", info.ID, info.Name)
	return nil
}

func runTransform() {
	fs := flag.NewFlagSet("transform", flag.ExitOnError)
	sf := addSnapshotFlags(fs)
	dataPath := fs.String("data", "", "data file (default: data.path)")
	outputFormat := fs.String("output", "libsvm", "output format: libsvm or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*sf.config, *sf.debug)
	defer logger.Sync()

	eng, _, err := loadEngine(context.Background(), cfg, sf, logger)
	if err != nil {
		logger.Fatal("Failed to load engine", zap.Error(err))
	}
	frame, err := openData(cfg, *dataPath)
	if err != nil {
		logger.Fatal("Failed to read data", zap.Error(err))
	}
	samples, err := eng.Transform(frame)
	if err != nil {
		logger.Fatal("Transform failed", zap.Error(err))
	}
	n, err := cli.WriteSamples(os.Stdout, samples, format)
	if err != nil {
		logger.Fatal("Transform failed", zap.Int("written", n), zap.Error(err))
	}
	logger.Debug("transform finished", zap.Int("rows", n))
}

func runSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	sf := addSnapshotFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*sf.config, *sf.debug)
	defer logger.Sync()

	eng, _, err := loadEngine(context.Background(), cfg, sf, logger)
	if err != nil {
		logger.Fatal("Failed to load engine", zap.Error(err))
	}
	summary, err := eng.Summary()
	if err != nil {
		logger.Fatal("Summary failed", zap.Error(err))
	}
	fmt.Println(summary)
}

// argsReorder moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseIndexArg parses the single positional feature index of the name command.
func parseIndexArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one feature index")
	}
	index, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid feature index %q", args[0])
	}
	return index, nil
}

func runName() {
	fs := flag.NewFlagSet("name", flag.ExitOnError)
	sf := addSnapshotFlags(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))

	index, err := parseIndexArg(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: featrans name [flags] <index>: %v\n", err)
		os.Exit(1)
	}
	cfg, logger := setup(*sf.config, *sf.debug)
	defer logger.Sync()

	eng, _, err := loadEngine(context.Background(), cfg, sf, logger)
	if err != nil {
		logger.Fatal("Failed to load engine", zap.Error(err))
	}
	name, ok, err := eng.FeatureName(index)
	if err != nil {
		logger.Fatal("Lookup failed", zap.Error(err))
	}
	if !ok {
		fmt.Printf("No feature at index %d\n", index)
		os.Exit(1)
	}
	fmt.Println(name)
}

func runSnapshots() {
	fs := flag.NewFlagSet("snapshots", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	asJSON := fs.Bool("json", false, "print JSON")
	deleteID := fs.String("delete", "", "delete the snapshot with this id")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	if cfg.Storage.DatabasePath == "" {
		fmt.Fprintln(os.Stderr, "storage.database_path is not set")
		os.Exit(1)
	}
	store, err := storage.NewSQLiteSnapshots(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open catalogue", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if *deleteID != "" {
		if err := store.Delete(ctx, *deleteID); err != nil {
			fmt.Printf("Deletion failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot deleted: %s\n", *deleteID)
		return
	}
	infos, err := store.List(ctx)
	if err != nil {
		logger.Fatal("Failed to list snapshots", zap.Error(err))
	}
	if err := cli.WriteSnapshots(os.Stdout, infos, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	sf := addSnapshotFlags(fs)
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*sf.config, *sf.debug)
	defer logger.Sync()

	eng, info, err := loadEngine(context.Background(), cfg, sf, logger)
	if err != nil {
		logger.Fatal("Failed to load engine", zap.Error(err))
	}
	srv := server.NewServer(eng, info, &cfg.Server, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Server.WatchSnapshot && *sf.id == "" && !*sf.latest {
		w := watcher.NewWatcher(
			resolveSnapshotPath(cfg, *sf.snapshot),
			func(path string) {
				next, _, err := loadEngine(context.Background(), cfg, sf, logger)
				if err != nil {
					logger.Warn("snapshot reload failed", zap.String("path", path), zap.Error(err))
					return
				}
				srv.SetEngine(next, nil)
			},
			watcher.WithLogger(logger),
		)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start snapshot watcher", zap.Error(err))
		}
		defer w.Stop()
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printUsage() {
	fmt.Println(`featrans - Tabular feature transformation engine

Usage:
  featrans init [flags]              Write a starter config file
  featrans discover [flags]          Discover vocabularies and save a snapshot
  featrans transform [flags]         Transform a data file into sparse samples
  featrans summary [flags]           Show the index range of each column
  featrans name [flags] <index>      Show the feature name of a global index
  featrans snapshots [flags]         List or delete catalogue snapshots
  featrans serve [flags]             Start the HTTP server
  featrans version                   Show version
  featrans help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/featrans/config.yaml)
  --debug            Enable debug logging

Init Flags:
  --out string       Config file to write (default: config.yaml)
  --data string      Data file to infer transformers from
  --label string     Label column, used with --data (default: label)
  --force            Overwrite an existing config file

Discover Flags:
  --data string      Data file (default: data.path)
  --out string       Snapshot file (default: storage.snapshot_path)
  --name string      Catalogue name when storage.database_path is set

Transform, Summary, Name and Serve Flags:
  --snapshot string  Snapshot file (default: storage.snapshot_path)
  --id string        Load a catalogue snapshot by id
  --latest           Load the latest catalogue snapshot named storage.snapshot_name
  --data string      Data file, transform only (default: data.path)
  --output string    Output format, transform only: libsvm or json (default: libsvm)

Snapshots Flags:
  --json             Print JSON
  --delete string    Delete the snapshot with this id

Examples:
  featrans init --data train.csv --label clicked
  featrans discover --data train.csv
  featrans transform --data test.csv > test.svm
  featrans transform --output json --latest
  featrans name 3
  featrans serve --latest`)
}
