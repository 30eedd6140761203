package main

import (
	"fmt"
	"os"
	"strings"

	"communityboard/app/config"
	"communityboard/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args and exits with the command's status.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
		exit(0)
	case "version":
		fmt.Printf("communityboard version %s\n", CliVersion)
		exit(0)
	case "serve", "init", "clean", "backup", "restore":
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			exit(1)
			return
		}
		args := append([]string{cmd}, os.Args[2:]...)
		exit(service.HandleCommand(cfg, args))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: communityboard <command> [options]
Commands:
  help                       Display this help message.
  version                    Show version information.
  serve                      Run the community board web service.
  init                       Initialize a new empty database.
  clean [--yes]              Delete the database.
  backup                     Back up the database into the backup directory.
  restore <file> [--yes]     Replace the database with a backup.

Configuration:
  CONFIG_PATH                Optional YAML config file.
  .env                       Loaded from the working directory when present.
  HTTP_ADDRESS, STORAGE_DRIVER, STORAGE_PATH, LOG_LEVEL, ...  Environment overrides.
`
	fmt.Println(helpText)
}
