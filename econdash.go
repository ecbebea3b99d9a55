package main

import (
	"fmt"
	"os"
	"strings"

	"econdash/modules/commands"
	"econdash/modules/platform/config"
)

const (
	Version   = "0.1.0"
	BuildDate = "development"
)

func main() {
	// Parse global flags
	args := os.Args[1:]
	configPath := ""
	verbose := false

	// Extract global flags
	var cmdArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose" || arg == "-v":
			verbose = true
		case arg == "--version" || arg == "-V":
			printVersion()
			return
		case arg == "--help" || arg == "-h":
			printHelp()
			return
		default:
			cmdArgs = append(cmdArgs, arg)
		}
	}

	// Load configuration
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	if err := config.LoadGlobal(configPath); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		}
	}

	// Initialize command registry
	commands.InitRegistry()

	// If no command specified, open the metrics dashboard
	if len(cmdArgs) == 0 {
		cmdArgs = []string{"dash"}
	}

	// Find and execute command
	cmdName := cmdArgs[0]
	cmdRemainingArgs := cmdArgs[1:]

	// Handle special commands
	switch cmdName {
	case "version":
		printVersion()
		return
	case "help":
		if len(cmdRemainingArgs) > 0 {
			commands.PrintCommandHelp(cmdRemainingArgs[0])
		} else {
			printHelp()
		}
		return
	}

	// Look up command in registry
	cmd := commands.GetCommand(cmdName)
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		fmt.Fprintf(os.Stderr, "Run 'econdash help' for usage.\n")
		os.Exit(1)
	}

	// Execute command
	if err := cmd.Handler(cmdRemainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("econdash version %s\n", Version)
	fmt.Printf("Build: %s\n", BuildDate)
}

func printHelp() {
	fmt.Println("econdash - Terminal dashboards for a remote economic simulation")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  econdash [flags] [command] [arguments]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  -c, --config <path>    Path to config file")
	fmt.Println("  -v, --verbose          Verbose output")
	fmt.Println("  -V, --version          Print version")
	fmt.Println("  -h, --help             Print help")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println()

	// Print commands by category
	commands.PrintCommands()

	fmt.Println()
	fmt.Println("Use 'econdash help <command>' for more information about a command.")
}
