package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("predatorkey v%s\n", version)
	fmt.Println("Runs commands when the Acer Predator key is pressed")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  predatorkey [OPTIONS]")
	fmt.Println("  predatorkey list-devices [-enumerator evdev|udev]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Config file (YAML, or TOML if it ends in .toml)")
	fmt.Println("        Default: $XDG_CONFIG_HOME/predatorkey/config.yaml if it exists")
	fmt.Println()
	fmt.Println("  -device string")
	fmt.Printf("        Input device tried before discovery (default %q)\n", defaultGuessPath)
	fmt.Println()
	fmt.Println("  -enumerator string")
	fmt.Printf("        Device enumeration backend: evdev|udev (default %q)\n", defaultEnumerator)
	fmt.Println()
	fmt.Println("  -command string")
	fmt.Printf("        Command run on key press (default %q)\n", defaultPrimaryCommand)
	fmt.Println()
	fmt.Println("  -extra-command string")
	fmt.Println("        Additional command run after -command (repeatable)")
	fmt.Println()
	fmt.Println("  -debounce-ms int")
	fmt.Printf("        Minimum time between accepted key presses in ms (default %d)\n", defaultDebounceMS)
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println("        debug also prints every input event")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Commands containing a space (and not starting with /) are split on")
	fmt.Println("    whitespace. Quotes are passed through literally, so")
	fmt.Println("    \"notify-send 'Hello' 'World'\" runs notify-send with 'Hello' and 'World'.")
	fmt.Println("  - Requires read access to the input device (add user to the 'input' group)")
	fmt.Println()
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	// Check for subcommand mode first
	if len(os.Args) > 1 && os.Args[1] == "list-devices" {
		runListDevicesSubcommand(os.Args[2:])
		return
	}

	var (
		configPath  = flag.String("config", "", "Config file (YAML, or TOML if it ends in .toml)")
		devicePath  = flag.String("device", defaultGuessPath, "Input device tried before discovery")
		enumerator  = flag.String("enumerator", defaultEnumerator, "Device enumeration backend: evdev|udev")
		command     = flag.String("command", defaultPrimaryCommand, "Command run on key press")
		debounceMS  = flag.Int("debounce-ms", defaultDebounceMS, "Minimum time between accepted key presses (milliseconds)")
		logLevelStr = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
		extra       stringList
	)
	flag.Var(&extra, "extra-command", "Additional command run after -command (repeatable)")

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	// Only flags given on the command line override the config file.
	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			overrides.DevicePath = devicePath
		case "enumerator":
			overrides.Enumerator = enumerator
		case "command":
			overrides.PrimaryCommand = command
		case "extra-command":
			overrides.ExtraCommands = extra
		case "debounce-ms":
			overrides.DebounceMS = debounceMS
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})

	cfg, err := resolveConfig(*configPath, overrides)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Validate already checked the level.
	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stdout, logLevel)

	logger.Debug("starting predatorkey", "version", version)
	logger.Debug("configuration",
		"guess_path", cfg.Device.GuessPath,
		"name_contains", cfg.Device.NameContains,
		"enumerator", cfg.Device.Enumerator,
		"strategies", cfg.Device.Strategies,
		"primary_command", cfg.Commands.Primary,
		"extra_commands", cfg.Commands.Extra,
		"debounce_ms", cfg.Commands.DebounceMS)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, cfg, logger)
}

// resolveConfig layers defaults, the config file and flag overrides, then
// validates the result. An explicit path must exist; the XDG default is
// optional.
func resolveConfig(path string, overrides FlagOverrides) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		loaded, err := LoadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}

	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
