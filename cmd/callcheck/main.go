package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"callcheck/internal/version"
)

// errFindings signals exit status 1 after the findings were already printed.
var errFindings = errors.New("findings reported")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "callcheck",
		Short: "Check LLVM IR call sites against callee signatures",
		Long: `callcheck walks textual LLVM IR (.ll) and reports calls whose argument
count or argument types disagree with the called function's definition,
followed by a summary of every called function.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupTracing(cmd); err != nil {
				return err
			}
			return setupProfiling(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			stopProfiling(cmd)
			closeTracing(cmd)
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 = unlimited)")
	pf.String("config", "", "path to callcheck.toml (default: search upwards from the target)")
	addTraceFlags(root)
	addProfileFlags(root)

	root.AddCommand(newCheckCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// main loads .env, builds the command tree and maps failures to exit status 1.
func main() {
	// .env необязателен
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		stopProfiling(root)
		closeTracing(root)
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "callcheck: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color against NO_COLOR and the terminal.
func useColor(cmd *cobra.Command) (bool, error) {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch flag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		if _, set := os.LookupEnv("NO_COLOR"); set {
			return false, nil
		}
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", flag)
	}
}
