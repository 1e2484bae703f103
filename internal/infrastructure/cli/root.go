package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/matrixsh/internal/app"
	"github.com/doeshing/matrixsh/internal/application/shell"
	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/infrastructure/ai"
	"github.com/doeshing/matrixsh/internal/pkg/logger"
)

// Options holds CLI-level configuration.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// rootFlags are shared by the interactive session and the subcommands.
type rootFlags struct {
	configPath      string
	debug           bool
	url             string
	model           string
	key             string
	mode            string
	stream          bool
	skipHealthCheck bool
}

func (f *rootFlags) build(cmd *cobra.Command) (*app.Container, error) {
	return app.BuildContainer(cmd.Context(), app.Options{
		Verbose:    logger.Verbose(f.debug),
		ConfigPath: f.configPath,
		Overrides: domain.SessionOverrides{
			BaseURL: f.url,
			Model:   f.model,
			APIKey:  f.key,
			Mode:    f.mode,
			Stream:  f.stream,
		},
	})
}

// NewRootCmd wires the cobra root command. Without a subcommand it starts
// the interactive session.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "matrixsh",
		Short: "MatrixShell - an AI-assisted interactive shell",
		Long: "MatrixShell runs your commands as a normal shell and sends anything that reads like a\n" +
			"question to the MatrixLLM gateway. Suggested commands run only after you confirm them\n" +
			"and never when they match the denylist.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, flags, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	persistent := root.PersistentFlags()
	persistent.StringVar(&flags.configPath, "config", "", "Config file (default $MATRIXSH_CONFIG or the user config dir)")
	persistent.BoolVar(&flags.debug, "debug", false, "Enable verbose logging on stderr")
	persistent.StringVar(&flags.url, "url", "", "Gateway base URL")
	persistent.StringVar(&flags.model, "model", "", "Model name sent to the gateway")
	persistent.StringVar(&flags.key, "key", "", "Gateway API key")
	persistent.StringVar(&flags.mode, "mode", "", "Shell backend: auto, bash, cmd or powershell")
	root.Flags().BoolVar(&flags.stream, "stream", false, "Print /chat replies as they arrive")
	root.Flags().BoolVar(&flags.skipHealthCheck, "skip-health-check", false, "Start even if the gateway health probe fails")

	root.AddCommand(newHistoryCommand(flags))
	root.AddCommand(newDoctorCommand(flags))
	root.AddCommand(newConfigCommand(flags))
	root.AddCommand(newVersionCommand())
	return root
}

func runSession(cmd *cobra.Command, flags *rootFlags, opts Options) error {
	ctx := cmd.Context()
	container, err := flags.build(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	presenter := NewPresenter(opts.Out, opts.Err, container.Config.UI.Color)
	console := NewConsole(opts.In, opts.Out)
	svc, err := container.ShellService(console, presenter)
	if err != nil {
		return err
	}

	status := "skipped"
	if !flags.skipHealthCheck {
		if !container.Gateway.Health(ctx) {
			return fmt.Errorf("%w: no answer from %s/health; start the gateway or pass --skip-health-check",
				domain.ErrHealthCheck, ai.RootURL(container.Config.Gateway.BaseURL))
		}
		status = "online"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	presenter.Banner(container.Executor.Mode(), status)
	code, err := svc.Run(ctx, &shell.Session{ID: container.SessionID, Cwd: cwd})
	if err != nil || code != domain.ExitOK {
		return &ExitError{Code: code, Err: err}
	}
	return nil
}
