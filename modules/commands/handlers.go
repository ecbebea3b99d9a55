package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"econdash/modules/platform/config"
	"econdash/modules/platform/control"
	uicore "econdash/modules/ui/core"
	"econdash/modules/ui/tui"
)

// commandTimeout bounds every one-shot request
const commandTimeout = 10 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// runDashboard builds the pipeline for one profile and runs the UI
func runDashboard(profileName string, mode tui.ViewMode) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("the %s dashboard needs an interactive terminal", profileName)
	}

	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx := GetContext()
	profile := ctx.Config.Profile(profileName)
	presenter := uicore.NewPresenter(ctx.Config, profile, ctx.Logger)

	app := tui.NewApp(presenter, mode)
	return app.Run()
}

// dashCommand handles the 'dash' command
func dashCommand(args []string) error {
	return runDashboard("dash", tui.ViewDash)
}

// worldCommand handles the 'world' command
func worldCommand(args []string) error {
	return runDashboard("world", tui.ViewWorld)
}

// printResult reports one command outcome
func printResult(result *control.CommandResult, err error) error {
	if err != nil {
		return fmt.Errorf("%s", control.UserMessage(err))
	}
	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Println(result.Status)
	}
	if result.CurrentTime > 0 {
		fmt.Printf("current time: %d\n", result.CurrentTime)
	}
	return nil
}

// controlCommand dispatches to its sub-commands
func controlCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("sub-command is required\nUsage: econdash control <play|pause|step|speed|jump|rewind|reset>")
	}

	cmd := GetCommand("control")
	sub := findSubCommand(cmd, args[0])
	if sub == nil {
		return fmt.Errorf("unknown control sub-command: %s", args[0])
	}
	return sub.Handler(args[1:])
}

func controlPlay(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	speed := 1.0
	if len(args) > 0 {
		parsed, err := strconv.ParseFloat(args[0], 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid speed: %s", args[0])
		}
		speed = parsed
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Play(ctx, speed)
	return printResult(result, err)
}

func controlPause(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Pause(ctx)
	return printResult(result, err)
}

func controlStep(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	steps := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid step count: %s", args[0])
		}
		steps = parsed
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Step(ctx, steps)
	return printResult(result, err)
}

func controlSpeed(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if len(args) == 0 {
		return fmt.Errorf("speed multiplier is required\nUsage: econdash control speed <multiplier>")
	}
	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil || speed <= 0 {
		return fmt.Errorf("invalid speed: %s", args[0])
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.SetSpeed(ctx, speed)
	return printResult(result, err)
}

func controlJump(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if len(args) == 0 {
		return fmt.Errorf("target time is required\nUsage: econdash control jump <time>")
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("invalid target time: %s", args[0])
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Jump(ctx, target)
	return printResult(result, err)
}

func controlRewind(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if len(args) == 0 {
		return fmt.Errorf("target time is required\nUsage: econdash control rewind <time>")
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target < 0 {
		return fmt.Errorf("invalid target time: %s", args[0])
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Rewind(ctx, target)
	return printResult(result, err)
}

func controlReset(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.Reset(ctx)
	return printResult(result, err)
}

// statusCommand handles the 'status' command
func statusCommand(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	ctx, cancel := requestContext()
	defer cancel()
	status, err := GetContext().API.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("%s", control.UserMessage(err))
	}

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Mode:        %s\n", status.Mode)
	fmt.Printf("Time:        %d\n", status.CurrentTime)
	fmt.Printf("Speed:       %.2gx\n", status.Speed)
	fmt.Printf("Entities:    %d\n", status.EntityCount)
	if status.StepsPerSecond > 0 {
		fmt.Printf("Steps/sec:   %.1f\n", status.StepsPerSecond)
	}
	if status.MemoryMB > 0 {
		fmt.Printf("Memory:      %.1f MB\n", status.MemoryMB)
	}
	return nil
}

// metricsCommand handles the 'metrics' command
func metricsCommand(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	history := 0
	for i := 0; i < len(args); i++ {
		if args[i] == "--history" && i+1 < len(args) {
			parsed, err := strconv.Atoi(args[i+1])
			if err != nil || parsed < 1 {
				return fmt.Errorf("invalid history length: %s", args[i+1])
			}
			history = parsed
			i++
		}
	}

	ctx, cancel := requestContext()
	defer cancel()
	api := GetContext().API

	if history > 0 {
		samples, err := api.GetMetricsHistory(ctx, history)
		if err != nil {
			return fmt.Errorf("%s", control.UserMessage(err))
		}
		data, err := json.MarshalIndent(samples, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal samples: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	sample, err := api.GetCurrentMetrics(ctx)
	if err != nil {
		return fmt.Errorf("%s", control.UserMessage(err))
	}
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// scenariosCommand handles the 'scenarios' command
func scenariosCommand(args []string) error {
	if len(args) > 0 {
		cmd := GetCommand("scenarios")
		if sub := findSubCommand(cmd, args[0]); sub != nil {
			return sub.Handler(args[1:])
		}
		return fmt.Errorf("unknown scenarios sub-command: %s", args[0])
	}

	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	scenarios, err := GetContext().API.ListScenarios(ctx)
	if err != nil {
		return fmt.Errorf("%s", control.UserMessage(err))
	}

	if len(scenarios) == 0 {
		fmt.Println("No scenarios available.")
		return nil
	}

	fmt.Printf("Scenarios (%d):\n\n", len(scenarios))
	for _, s := range scenarios {
		fmt.Printf("  %s\n", s.Name)
		if s.Description != "" {
			fmt.Printf("    %s\n", s.Description)
		}
	}
	return nil
}

func scenariosLoad(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("scenario name is required\nUsage: econdash scenarios load <name>")
	}

	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.LoadScenario(ctx, args[0])
	return printResult(result, err)
}

// snapshotsCommand handles the 'snapshots' command
func snapshotsCommand(args []string) error {
	if len(args) > 0 {
		cmd := GetCommand("snapshots")
		if sub := findSubCommand(cmd, args[0]); sub != nil {
			return sub.Handler(args[1:])
		}
		return fmt.Errorf("unknown snapshots sub-command: %s", args[0])
	}

	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	snapshots, err := GetContext().API.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("%s", control.UserMessage(err))
	}

	if len(snapshots) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}

	fmt.Printf("Snapshots (%d):\n\n", len(snapshots))
	for _, s := range snapshots {
		fmt.Printf("  t=%-10d %8d bytes  %s\n", s.Timestamp, s.FileSize, s.FilePath)
	}
	return nil
}

func snapshotsCreate(args []string) error {
	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := requestContext()
	defer cancel()
	result, err := GetContext().API.CreateSnapshot(ctx)
	return printResult(result, err)
}

// configCommand handles the 'config' command
func configCommand(args []string) error {
	if len(args) > 0 {
		cmd := GetCommand("config")
		if sub := findSubCommand(cmd, args[0]); sub != nil {
			return sub.Handler(args[1:])
		}
		return fmt.Errorf("unknown config sub-command: %s", args[0])
	}

	if err := InitContext(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx := GetContext()
	fmt.Printf("Config file: %s\n\n", ctx.ConfigPath)

	data, err := json.MarshalIndent(ctx.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func configInit(args []string) error {
	path := config.GetGlobalPath()
	if path == "" {
		path = config.DefaultConfigFileName
	}

	loader := config.NewLoader(path)
	if loader.Exists() {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}
