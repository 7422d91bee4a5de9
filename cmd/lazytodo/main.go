package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/export"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/persist"
	"github.com/Joseda-hg/lazytodo/internal/todo"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/Joseda-hg/lazytodo/internal/web"
	"github.com/charmbracelet/log"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path (.json or .toml)")
	dbPathFlag := flag.String("db", "", "sqlite db path")
	driverFlag := flag.String("driver", "", "storage driver: sqlite, postgres, mysql or memory")
	dsnFlag := flag.String("dsn", "", "storage connection string")
	webFlag := flag.Bool("web", false, "enable web server")
	webOnlyFlag := flag.Bool("web-only", false, "run web server only")
	portFlag := flag.Int("port", 0, "web server port")
	exportFlag := flag.String("export", "", "export tasks as "+strings.Join(export.Formats, ", ")+" and exit")
	outFlag := flag.String("out", "", "export output path (default stdout)")
	filterFlag := flag.String("filter", "all", "export filter: all, urgente, moyenne or basse")
	issueTokenFlag := flag.Bool("issue-token", false, "print a web api token and exit")
	logLevelFlag := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Parse()

	fatal := logging.New(os.Stderr, logging.DefaultOptions())

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		fatal.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal.Fatal(err)
	}

	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.db")
	}
	if *driverFlag != "" {
		cfg.StorageDriver = *driverFlag
	}
	if *dsnFlag != "" {
		cfg.StorageDSN = *dsnFlag
	}
	if *webFlag || *webOnlyFlag {
		cfg.WebEnabled = true
	}
	if *portFlag != 0 {
		cfg.WebPort = *portFlag
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.log")
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		fatal.Fatal(err)
	}

	if *issueTokenFlag {
		token, err := web.IssueToken(cfg.WebTokenSecret, 30*24*time.Hour)
		if err != nil {
			fatal.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	interactive := *exportFlag == "" && !*webOnlyFlag
	logger, closeLog, err := openLogger(cfg, interactive)
	if err != nil {
		fatal.Fatal(err)
	}
	defer closeLog()

	kv, store, err := openStore(cfg, logger)
	if err != nil {
		fatal.Fatal(err)
	}
	defer kv.Close()

	if *exportFlag != "" {
		format, err := exportFormat(*exportFlag)
		if err != nil {
			fatal.Fatal(err)
		}
		if err := runExport(store, format, *filterFlag, *outFlag); err != nil {
			fatal.Fatal(err)
		}
		return
	}

	if cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(store,
			web.WithLogger(logger),
			web.WithAllowedOrigins(cfg.WebAllowedOrigins),
			web.WithTokenSecret(cfg.WebTokenSecret),
		).Handler()
		if *webOnlyFlag {
			logger.Info("web server running", "url", "http://localhost"+addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				logger.Fatal("web server", "err", err)
			}
			return
		}

		go func() {
			logger.Info("web server running", "url", "http://localhost"+addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				logger.Error("web server", "err", err)
			}
		}()
	}

	if err := tui.Run(store); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// openLogger writes to the log file while the terminal UI owns the screen and
// to stderr otherwise.
func openLogger(cfg config.Config, toFile bool) (*log.Logger, func(), error) {
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if toFile {
		if err := config.EnsureDir(cfg.LogPath); err != nil {
			return nil, nil, err
		}
		file, err := logging.OpenFile(cfg.LogPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
		closeFn = func() { _ = file.Close() }
	}
	return logging.New(w, opts), closeFn, nil
}

func openStore(cfg config.Config, logger *log.Logger) (db.KV, *todo.Store, error) {
	driver, err := db.NormalizeDriver(cfg.StorageDriver)
	if err != nil {
		return nil, nil, err
	}
	if driver == db.DriverSQLite && cfg.StorageDSN == "" {
		if err := config.EnsureDir(cfg.DBPath); err != nil {
			return nil, nil, err
		}
	}

	policy, err := persist.ParsePolicy(cfg.CorruptPolicy)
	if err != nil {
		return nil, nil, err
	}

	kv, err := db.OpenKV(driver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}

	bridge := persist.New(kv, cfg.StorageKey, persist.WithPolicy(policy), persist.WithLogger(logger))
	tasks, err := bridge.Load(context.Background())
	if err != nil {
		_ = kv.Close()
		return nil, nil, err
	}
	logger.Debug("tasks loaded", "driver", driver, "count", len(tasks))

	return kv, todo.New(tasks, todo.WithSyncer(bridge), todo.WithLogger(logger)), nil
}

func exportFormat(value string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(value))
	if !slices.Contains(export.Formats, format) {
		return "", fmt.Errorf("unknown export format %q (want %s)", value, strings.Join(export.Formats, ", "))
	}
	return format, nil
}

func runExport(store *todo.Store, format, filterValue, outPath string) error {
	filter, err := model.ParseFilter(filterValue)
	if err != nil {
		return err
	}
	data, err := export.Render(store.FilteredView(filter), format)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := config.EnsureDir(outPath); err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
