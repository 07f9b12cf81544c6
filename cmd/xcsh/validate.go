package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/f5xc/xcsh/pkg/catalog"
	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/openapi"
)

func newValidateCmd(stdout io.Writer, configFile *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate [spec-file...]",
		Short: "Validate the configuration and API specifications",
		Long: `Validate the xcsh configuration and API specification files.

This command checks:
  - Config file syntax and setting values
  - The embedded domain catalog and --spec-dir
  - Each spec file given as an argument`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, "Validating configuration...")
			loader := config.NewLoader(config.AppName)
			settings, err := loader.Load(&config.LoadOptions{Flags: cmd.Flags(), ConfigFile: *configFile})
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			if err := config.NewValidator().Validate(settings); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			if verbose {
				fmt.Fprintf(stdout, "  Config file: %s\n", loader.ConfigFilePath(*configFile))
			}
			fmt.Fprintln(stdout, "✓ Configuration is valid")

			fmt.Fprintln(stdout, "\nValidating domain catalog...")
			cat, err := catalog.Load(cmd.Context(), &catalog.LoadOptions{SpecDir: settings.SpecDir})
			if err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			fmt.Fprintf(stdout, "✓ %d domains loaded\n", len(cat.Names()))

			for _, path := range args {
				if err := validateSpecFile(cmd.Context(), stdout, path, verbose); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			fmt.Fprintln(stdout, "\n✓ All validations passed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details")
	return cmd
}

func validateSpecFile(ctx context.Context, stdout io.Writer, path string, verbose bool) error {
	fmt.Fprintf(stdout, "\nValidating %s...\n", path)
	spec, err := openapi.NewParser().ParseFile(ctx, path)
	if err != nil {
		return err
	}
	ops := spec.GetOperations()
	if verbose {
		fmt.Fprintf(stdout, "  Domain: %s\n", spec.Domain.Name)
		fmt.Fprintf(stdout, "  Format: %s\n", spec.OriginalVersion)
		fmt.Fprintf(stdout, "  Operations: %d\n", len(ops))
	}
	fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	return nil
}
