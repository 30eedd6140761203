package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"communityboard/app/config"
	"communityboard/app/logging"
	"communityboard/app/repositories"

	"github.com/rs/zerolog"
)

// HandleCommand runs a board subcommand and returns an exit code.
func HandleCommand(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		printHelp()
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return serve(cfg)
	case "clean":
		return clean(cfg, hasFlag(rest, "--yes"))
	case "init":
		return initDb(cfg)
	case "backup":
		return backup(cfg)
	case "restore":
		file := firstArg(rest)
		if file == "" {
			fmt.Println("Error: backup file path required for restore")
			return 1
		}
		return restore(cfg, file, hasFlag(rest, "--yes"))
	case "help":
		printHelp()
		return 0
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		printHelp()
		return 1
	}
}

// printHelp prints help for the storage and server subcommands.
func printHelp() {
	helpText := `Usage: communityboard <command>

Commands:
  serve                           Run the board web service
  clean [--yes]                   Delete the board database
  init                            Initialize a new empty database
  backup                          Create a backup of the database
  restore <file> [--yes]          Restore the database from a backup
  help                            Display this help message

Configuration is read from CONFIG_PATH (YAML), a .env file and the environment.`
	fmt.Println(helpText)
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func firstArg(args []string) string {
	for _, a := range args {
		if len(a) > 0 && a[0] != '-' {
			return a
		}
	}
	return ""
}

// confirm asks a yes/no question on stdin.
func confirm(question string) bool {
	fmt.Print(question + " [y/N] ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// fileStorage reports whether the configured driver keeps data on disk.
func fileStorage(cfg *config.Config) bool {
	if cfg.Storage.Driver == config.DriverMemory {
		fmt.Println("The memory storage driver keeps no files; nothing to do")
		return false
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// serve runs the web service until SIGINT or SIGTERM.
func serve(cfg *config.Config) int {
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RunAppServer(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("board service stopped")
		return 1
	}
	return 0
}

// clean removes the database.
func clean(cfg *config.Config, yes bool) int {
	if !fileStorage(cfg) {
		return 0
	}
	dbPath := cfg.Storage.Path
	if !exists(dbPath) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}

	if !yes && !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// initDb initializes a new empty database.
func initDb(cfg *config.Config) int {
	if !fileStorage(cfg) {
		return 0
	}
	dbPath := cfg.Storage.Path
	if exists(dbPath) {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 0
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	store, err := repositories.Open(dbPath, zerolog.Nop())
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer store.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// backup writes a full backup of the database into the backup directory.
func backup(cfg *config.Config) int {
	if !fileStorage(cfg) {
		return 1
	}
	dbPath := cfg.Storage.Path
	if !exists(dbPath) {
		fmt.Println("No database exists to backup")
		return 1
	}

	backupDir := cfg.Storage.BackupDir
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	store, err := repositories.Open(dbPath, zerolog.Nop())
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := store.Backup(f); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore replaces the database with the contents of a backup.
func restore(cfg *config.Config, backupFile string, yes bool) int {
	if !fileStorage(cfg) {
		return 1
	}
	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	dbPath := cfg.Storage.Path
	if exists(dbPath) {
		if !yes && !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	store, err := repositories.Open(dbPath, zerolog.Nop())
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	if err := store.Load(f); err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}
