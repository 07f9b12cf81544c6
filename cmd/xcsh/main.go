// Package main implements the xcsh command: an interactive shell and
// one-shot CLI for the F5 Distributed Cloud API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/f5xc/xcsh/internal/runtime"
	"github.com/f5xc/xcsh/pkg/config"
)

var (
	// Version is set at build time
	version = "dev"
	// BuildDate is set at build time
	buildDate = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the root command and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	code := 0
	cmd := newRootCmd(stdin, stdout, stderr, &code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer, code *int) *cobra.Command {
	var (
		configFile string
		showSpec   bool
	)

	cmd := &cobra.Command{
		Use:   "xcsh [domain] [group] [command] [flags] [args]",
		Short: "xcsh - shell for the F5 Distributed Cloud API",
		Long: `xcsh is an interactive shell and command-line client for the
F5 Distributed Cloud REST API.

Run without arguments to start the shell. With arguments, xcsh runs a single
command and exits, e.g.:

  xcsh virtual list http_loadbalancer -ns shared
  xcsh login profile list`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := isTerminal(stdin)
			rt := runtime.New(&runtime.Options{
				Version:     version,
				Flags:       cmd.Flags(),
				ConfigFile:  configFile,
				Interactive: interactive,
				Stdin:       stdin,
				Stdout:      stdout,
				Stderr:      stderr,
			})
			if err := rt.Init(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				if err := rt.Dispose(); err != nil {
					pterm.Warning.WithWriter(stderr).Println(err.Error())
				}
			}()

			if showSpec {
				return writeSpec(stdout, rt.Spec(), rt.Settings.Output)
			}
			if len(args) == 0 {
				return runShell(cmd.Context(), rt, stdin, stderr)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res := rt.Shell.ExecuteArgs(ctx, args)
			rt.Shell.Write(res)
			*code = exitCode(res)
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	cmd.SetVersionTemplate("xcsh version {{.Version}}\n")

	// Global flags are only recognized before the domain so command flags
	// reach the dispatcher untouched.
	cmd.Flags().SetInterspersed(false)
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to the config file (env: "+config.EnvConfig+")")
	flags.String("profile", "", "Connection profile to use (env: "+config.EnvProfile+")")
	flags.String("server-url", "", "API endpoint URL (env: "+config.EnvAPIURL+")")
	flags.String("namespace", "", "Default namespace (env: "+config.EnvNamespace+")")
	flags.StringP("output", "o", "", "Output format: table, json, yaml or text (env: "+config.EnvOutput+")")
	flags.String("timeout", "", "Per-request timeout, e.g. 15s (env: "+config.EnvTimeout+")")
	flags.String("spec-dir", "", "Directory with additional API specifications")
	flags.Bool("debug", false, "Log API requests and print a network report (env: "+config.EnvDebug+")")
	flags.Bool("no-color", false, "Disable colored output (env: "+config.EnvNoColor+")")
	cmd.Flags().BoolVar(&showSpec, "spec", false, "Print a machine-readable description of every command")

	cmd.SetUsageTemplate(cmd.UsageTemplate() + environmentHelp())

	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newValidateCmd(stdout, &configFile))
	return cmd
}

// runShell starts the REPL after a short token check.
func runShell(ctx context.Context, rt *runtime.Runtime, stdin io.Reader, stderr io.Writer) error {
	if v := rt.ValidateConnection(ctx); !v.Valid && v.Error != "" {
		pterm.Warning.WithWriter(stderr).Println(v.Error)
	}
	return rt.Shell.Run(ctx, stdin)
}

func writeSpec(w io.Writer, spec *runtime.CLISpec, format string) error {
	if strings.EqualFold(format, "yaml") {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return fmt.Errorf("failed to encode spec: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spec); err != nil {
		return fmt.Errorf("failed to encode spec: %w", err)
	}
	return nil
}

func environmentHelp() string {
	var b strings.Builder
	b.WriteString("\nEnvironment Variables:\n")
	for _, e := range config.EnvVars {
		fmt.Fprintf(&b, "  %-16s %s\n", e.Name, e.Description)
	}
	return b.String()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "xcsh version %s (built %s)\n", version, buildDate)
		},
	}
}
