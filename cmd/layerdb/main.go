package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"layerdb/internal/config"
	"layerdb/internal/crypto"
	"layerdb/internal/logging"
	"layerdb/pkg/layerdb"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("layerdb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	dbPath := fs.String("db", "", "store file (overrides config)")
	format := fs.String("format", "", "store format: snapfile or bolt (overrides config)")
	keyFile := fs.String("key-file", "", "encryption key file (overrides config)")
	logLevel := fs.String("log-level", "", "debug, info, warn or error (overrides config)")
	registry := NewCommandRegistry()
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: layerdb [flags] <command> [args]\n\n%s  %-22s %s\n  %-22s %s\n\nFlags:\n",
			registry.HelpText(), "shell", "interactive session", "keygen <file>", "write a new encryption key file")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	// Load config (TOML file + LAYERDB_* env), then CLI flags override.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *format != "" {
		cfg.Store.Format = *format
	}
	if *keyFile != "" {
		cfg.Store.KeyFile = *keyFile
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logging.InitWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	cmdArgs := fs.Args()
	if cmdArgs[0] == "keygen" {
		return runKeygen(cmdArgs[1:], stdout, stderr)
	}

	opts, err := storeOptions(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "layerdb: %v\n", err)
		return 1
	}
	path := cfg.StorePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		fmt.Fprintf(stderr, "layerdb: creating data dir: %v\n", err)
		return 1
	}
	db, err := layerdb.Load(path, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	if cmdArgs[0] == "shell" {
		err = runShell(registry, db, stdin, stdout)
	} else {
		err = registry.Run(db, stdout, cmdArgs)
	}
	// Close persists whatever the command changed.
	err = multierr.Append(err, db.Close())
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	return 0
}

// storeOptions translates the [store] section into handle options.
func storeOptions(cfg *config.Config) ([]layerdb.Option, error) {
	opts := []layerdb.Option{
		layerdb.WithFormat(cfg.Store.Format),
		layerdb.WithSync(cfg.Store.Sync),
	}
	if cfg.Store.KeyFile != "" {
		key, err := crypto.ReadKeyFile(config.ExpandHome(cfg.Store.KeyFile))
		if err != nil {
			return nil, err
		}
		opts = append(opts, layerdb.WithKey(key))
	}
	return opts, nil
}

func runKeygen(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: layerdb keygen <file>")
		return 2
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		fmt.Fprintf(stderr, "keygen: %v\n", err)
		return 1
	}
	path := config.ExpandHome(args[0])
	if err := crypto.WriteKeyFile(path, key); err != nil {
		fmt.Fprintf(stderr, "keygen: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote key to %s\n", path)
	return 0
}
