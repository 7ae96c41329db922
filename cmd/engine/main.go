// Command engine is the minimal CLI surface spec.md §6 names:
// `engine <file.js>` runs a script file, exit 0 on success or 1 on an
// uncaught exception; `engine` with no arguments opens a line-at-a-time
// REPL. Flag/command-tree conventions follow the teacher's cmd/lci.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/jsengine/internal/config"
	jsengctx "github.com/standardbeagle/jsengine/internal/context"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/version"
)

var cleanupFuncs []func()

func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", c.String("config"), err)
	}
	if depth := c.Int("max-call-depth"); depth > 0 {
		cfg.Runtime.MaxCallDepth = depth
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:    "engine",
		Usage:   "a from-scratch ECMAScript engine",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   ".jsengine.kdl",
				Usage:   "path to the engine config file",
			},
			&cli.IntFlag{
				Name:  "max-call-depth",
				Usage: "override Runtime.MaxCallDepth from the config file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			if c.NArg() == 0 {
				return runREPL(cfg)
			}
			return runFile(cfg, c.Args().First())
		},
	}

	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
}

// runFile executes path as a script and maps an uncaught exception
// (or a parse/compile failure) to exit status 1, success to 0.
func runFile(cfg *config.Config, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}

	ctx := jsengctx.New(cfg)
	if _, err := ctx.Eval(string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return nil
}

// runREPL reads one line at a time from stdin, evaluating each as its
// own top-level script against the same persistent Context so globals
// and function declarations from earlier lines stay visible.
func runREPL(cfg *config.Config) error {
	ctx := jsengctx.New(cfg)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Print("> ")
			continue
		}
		result, err := ctx.Eval(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			fmt.Println(replDisplay(result))
		}
		fmt.Print("> ")
	}
	fmt.Println()
	return scanner.Err()
}

// replDisplay renders a completion value the way a REPL echoes its
// last expression — not a full ECMAScript ToString (that belongs to
// script-visible String() and template literals), just enough for a
// human at a terminal to read the result.
func replDisplay(v value.Value) string {
	switch v.Kind() {
	case value.Undefined:
		return "undefined"
	case value.Null:
		return "null"
	case value.Boolean:
		return fmt.Sprintf("%v", v.AsBool())
	case value.Integer32, value.Float64:
		return fmt.Sprintf("%v", v.AsFloat64())
	case value.String:
		return fmt.Sprintf("%q", v.AsString())
	case value.Object_:
		if v.AsObject().Class == value.ClassFunction {
			return "[Function]"
		}
		return "[object Object]"
	default:
		return v.TypeOf()
	}
}
