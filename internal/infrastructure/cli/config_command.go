package cli

import (
	"fmt"
	"io"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/matrixsh/internal/domain"
	configinfra "github.com/doeshing/matrixsh/internal/infrastructure/config"
)

const (
	msgConfigurationValid       = "Configuration valid"
	msgNoDifferencesFromDefault = "No differences from default configuration."
	redacted                    = "********"
)

// newConfigCommand creates the config command with all subcommands
func newConfigCommand(flags *rootFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect MatrixShell configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, flags)
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration with secrets redacted",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd, flags)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), configinfra.NewFileLoader(flags.configPath).Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check that the configuration yields usable session settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				container, err := flags.build(cmd)
				if err != nil {
					return err
				}
				defer container.Close()
				if container.SettingsErr != nil {
					return container.SettingsErr
				}
				fmt.Fprintln(cmd.OutOrStdout(), msgConfigurationValid)
				return nil
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show differences from the default configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				container, err := flags.build(cmd)
				if err != nil {
					return err
				}
				defer container.Close()
				return showConfigurationDiff(cmd.OutOrStdout(), container.Config)
			},
		},
	)

	return configCmd
}

func showConfiguration(cmd *cobra.Command, flags *rootFlags) error {
	container, err := flags.build(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	data, err := yaml.Marshal(Redact(container.Config))
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", container.ConfigLoader.Path())
	fmt.Fprint(out, string(data))
	return nil
}

func showConfigurationDiff(out io.Writer, current domain.Config) error {
	diff := cmp.Diff(Redact(configinfra.DefaultConfig()), Redact(current))
	if diff == "" {
		fmt.Fprintln(out, msgNoDifferencesFromDefault)
		return nil
	}
	fmt.Fprintln(out, diff)
	return nil
}

// Redact masks credentials so the config can be printed.
func Redact(cfg domain.Config) domain.Config {
	if cfg.Gateway.APIKey != "" {
		cfg.Gateway.APIKey = redacted
	}
	if cfg.Gateway.Token != "" {
		cfg.Gateway.Token = redacted
	}
	return cfg
}
