package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/terminal"
)

// Version information - set via ldflags during build
var (
	version   = "0.1.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	configPath string
	repoPath   = "."
	noColor    bool
)

type startupOptions struct {
	configPath string
	repoPath   string
	noColor    bool
	args       []string
}

func main() {
	opts, err := parseStartupOptions(os.Args[1:])
	if err != nil {
		stderrWriter().Error("%v", err)
		os.Exit(exitUsage)
	}

	configPath = opts.configPath
	if opts.repoPath != "" {
		repoPath = opts.repoPath
	}
	noColor = opts.noColor

	if handled, exitCode := dispatchSubcommand(opts.args); handled {
		os.Exit(exitCode)
	}

	printHelp()
	os.Exit(exitUsage)
}

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
		return true, 0
	case "--help", "-h", "help":
		printHelp()
		return true, 0
	case "query":
		return true, runCommand(runQueryCommand, args[1:])
	case "log":
		return true, runCommand(runLogCommand, args[1:])
	case "show":
		return true, runCommand(runShowCommand, args[1:])
	case "diff":
		return true, runCommand(runDiffCommand, args[1:])
	case "commit":
		return true, runCommand(runCommitCommand, args[1:])
	default:
		errOut := stderrWriter()
		if strings.HasPrefix(args[0], "-") {
			errOut.Error("unknown flag: %s", args[0])
		} else {
			errOut.Error("unknown command: %s", args[0])
		}
		errOut.Dim("Run 'logis --help' for usage.")
		return true, exitUsage
	}
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		stderrWriter().Error("%s", errorMessage(err))
		return exitCodeForError(err)
	}
	return 0
}

// stderrWriter styles error output unless color is turned off.
func stderrWriter() *terminal.Writer {
	return terminal.NewWithOptions(os.Stderr, terminal.Options{
		Color: !noColor && os.Getenv("NO_COLOR") == "",
	})
}

// errorMessage prefers the user-facing text of structured errors.
func errorMessage(err error) string {
	if e, ok := logiserrors.As(err); ok {
		return strings.ReplaceAll(e.Friendly(), "\n", " ")
	}
	return err.Error()
}

func parseStartupOptions(raw []string) (*startupOptions, error) {
	opts := &startupOptions{}

	filtered := make([]string, 0, len(raw))
	var nextConfig, nextRepo bool

	for i, arg := range raw {
		if nextConfig {
			opts.configPath = arg
			nextConfig = false
			continue
		}
		if nextRepo {
			opts.repoPath = arg
			nextRepo = false
			continue
		}

		// Global flags are only recognized before the subcommand.
		if len(filtered) > 0 {
			filtered = append(filtered, raw[i:]...)
			break
		}

		switch arg {
		case "--no-color":
			opts.noColor = true
		case "--config", "-c":
			nextConfig = true
		case "--repo", "-C":
			nextRepo = true
		default:
			switch {
			case strings.HasPrefix(arg, "--config="):
				opts.configPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--repo="):
				opts.repoPath = strings.TrimPrefix(arg, "--repo=")
			default:
				filtered = append(filtered, arg)
			}
		}
	}

	if nextConfig {
		return nil, fmt.Errorf("--config requires a path argument")
	}
	if nextRepo {
		return nil, fmt.Errorf("--repo requires a path argument")
	}

	opts.args = filtered
	return opts, nil
}

func printHelp() {
	fmt.Println("logis - experiment tracking in git history")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  logis [FLAGS] <COMMAND> [ARGS]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println(`  query "<field> <op> <value>"     Find experiment commits, e.g. query "accuracy > 0.8"`)
	fmt.Println("        [--limit N] [--full-sha]   Operators: >, <, >=, <=, ==")
	fmt.Println("        [--raw] [--report]         --raw takes a JMESPath expression; --report prints a table")
	fmt.Println("        [--chart METRIC]           Bar chart of one metric across the matches")
	fmt.Println("  log [--limit N] [--full-sha]     List experiment commits")
	fmt.Println("  show <sha>                       Show one experiment run")
	fmt.Println("  diff <sha> <sha>                 Diff the metadata of two runs")
	fmt.Println("  commit --name N --hypers JSON --metrics JSON")
	fmt.Println("         [--artifacts JSON] [--annotations JSON] [--template T] [--dry-run]")
	fmt.Println("                                   Record a run as an exp commit")
	fmt.Println("  version                          Show version information")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -C, --repo <path>                Repository to operate on (default: current directory)")
	fmt.Println("  -c, --config <path>              Use custom config file")
	fmt.Println("  --no-color                       Disable colored output")
	fmt.Println("  -v, --version                    Show version information")
	fmt.Println("  -h, --help                       Show this help")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  LOGIS_DRY_RUN                    Render commit messages without committing (1/true/yes/on)")
	fmt.Println("  LOGIS_COMMIT_TEMPLATE            Summary template, e.g. \"run {name}\"")
	fmt.Println("  LOGIS_STAGE_STRATEGY             all, tracked or none")
	fmt.Println("  LOGIS_AUTHOR_NAME                Commit author name")
	fmt.Println("  LOGIS_AUTHOR_EMAIL               Commit author email")
	fmt.Println("  LOGIS_QUERY_LIMIT                Default query limit (0 = unlimited)")
	fmt.Println("  LOGIS_LOG_LEVEL                  debug, info, warn or error")
	fmt.Println("  LOGIS_LOG_DIR                    Session log directory")
	fmt.Println("  NO_COLOR                         Disable colored output")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  User config:    ~/.logis/config.yaml")
	fmt.Println("  Project config: <repo>/.logis/config.yaml")
}

func printVersion() {
	fmt.Printf("logis %s\n", version)
	if commit != "unknown" {
		fmt.Printf("  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Printf("  Built:      %s\n", buildDate)
	}
	fmt.Printf("  Go version: %s\n", runtime.Version())
}
