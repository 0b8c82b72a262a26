package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/roelfdiedericks/taskclaw/internal/commands"
	"github.com/roelfdiedericks/taskclaw/internal/config"
	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// version is set by goreleaser via ldflags: -X main.version=...
// Default "dev" indicates a local/non-release build.
var version = "dev"

// CLI holds the global flags and the raw SELECTOR/verb token stream; the
// grammar itself (where the verb falls in that stream) is the router's job,
// not kong's, since the verb position is not fixed.
type CLI struct {
	Data  string `help:"Path to the SQLite data file, overriding the rc file" type:"path"`
	JSON  bool   `help:"Emit structured JSON instead of table output" name:"json"`
	Yes   bool   `help:"Assume yes for multi-target confirmations" name:"yes"`
	Debug bool   `help:"Enable debug logging" short:"d"`

	Args []string `arg:"" optional:"" help:"SELECTOR and verb tokens, e.g. 'add \"write report\"' or 'project:work list'"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("taskclaw"),
		kong.Description("A local, single-user task and time tracker"),
		kong.UsageOnError(),
	)

	level := LevelInfo
	if cli.Debug {
		level = LevelDebug
	}
	Init(&Config{Level: level, ShowCaller: false})

	if len(cli.Args) == 1 && cli.Args[0] == "version" {
		fmt.Printf("taskclaw %s\n", version)
		return
	}

	out, err := run(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(exitCode(err))
	}
	if out != "" {
		fmt.Println(out)
	}
}

func run(cli CLI) (string, error) {
	loadResult, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := loadResult.Config
	if cli.Data != "" {
		cfg.DataLocation = cli.Data
	}
	if cli.JSON {
		cfg.JSONOutput = true
	}
	if cli.Yes {
		cfg.Confirm = false
	}

	s, err := store.Open(store.DefaultConfig(cfg.DataLocation))
	if err != nil {
		return "", fmt.Errorf("failed to open data store: %w", err)
	}
	defer s.Close()

	env := &commands.Env{
		Store:      s,
		JSONOutput: cfg.JSONOutput,
		AssumeYes:  !cfg.Confirm,
		IsTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}

	return commands.Route(context.Background(), env, cli.Args)
}

// exitCode maps a commands.Error's Kind to the process exit status: parse,
// not-found, conflict, and invariant failures are user errors (1); anything
// that reached the store layer unclassified is a system failure (2).
func exitCode(err error) int {
	var cmdErr *commands.Error
	if errors.As(err, &cmdErr) {
		if cmdErr.Kind() == commands.KindStoreError {
			return 2
		}
		return 1
	}
	return 2
}
