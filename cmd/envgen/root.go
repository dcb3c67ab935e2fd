package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sciamlab/envgen"
	xlog "github.com/sciamlab/envgen/internal/log"
	"github.com/sciamlab/envgen/manifest"
	"github.com/sciamlab/envgen/sourceenv"
	"github.com/sciamlab/envgen/sourcefile"
)

// EnvPrefix is the prefix of environment variables that supply flag defaults.
const EnvPrefix = "ENVGEN_"

// Flags that can be defaulted from the environment, keyed by their
// normalized environment key.
var envFlags = map[string]string{
	"pyproject": "pyproject",
	"config":    "config",
	"log_level": "log-level",
}

type rootOptions struct {
	name      string
	pyproject string
	config    string
	logLevel  string
	check     bool

	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "envgen",
		Short: "Generate environment files from pyproject.toml",
		Long: `envgen reads the dependencies declared in pyproject.toml and an environment
configuration file, and writes one conda (.yml) or pip requirements file per
configured environment.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.complete(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.name, "name", "n", "", "environment to process (default: all)")
	flags.StringVar(&opts.pyproject, "pyproject", manifest.DefaultPath, "path to pyproject.toml")
	flags.StringVarP(&opts.config, "config", "c", envgen.DefaultConfigPath, "path to the environment configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.Flags().BoolVar(&opts.check, "check", false, "report out-of-date files instead of writing them")

	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// complete fills unset flags from ENVGEN_* variables and configures logging.
func (o *rootOptions) complete(cmd *cobra.Command) error {
	values, err := sourceenv.New(sourceenv.Options{Prefix: EnvPrefix}).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	flags := cmd.Flags()
	for key, flag := range envFlags {
		value := sourceenv.String(values, key)
		if value == "" || flags.Lookup(flag) == nil || flags.Changed(flag) {
			continue
		}
		if err := flags.Set(flag, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
	}

	xlog.Configure(xlog.Config{Level: o.logLevel, Output: cmd.ErrOrStderr()})
	o.logger = xlog.WithComponent("cli")
	return nil
}

// generator loads both inputs and builds a Generator writing reports to the command's stdout.
func (o *rootOptions) generator(cmd *cobra.Command) (*envgen.Generator, error) {
	ctx := cmd.Context()

	m, err := manifest.Load(ctx, o.pyproject)
	if err != nil {
		return nil, err
	}
	o.logger.Debug().Str(xlog.FieldPath, m.Path).
		Int("dependencies", len(m.Dependencies)).
		Int("groups", len(m.OptionalDependencies)).
		Msg("loaded manifest")

	src := sourcefile.New(o.config, sourcefile.Options{Required: true})
	cfg, err := envgen.LoadConfig(ctx, src, envgen.UniqueOutputPaths())
	if err != nil {
		return nil, err
	}
	o.logger.Debug().Str("source", cfg.Source).Strs("environments", cfg.Names()).Msg("loaded environment configuration")

	return envgen.NewGenerator(m, cfg,
		envgen.WithOutput(cmd.OutOrStdout()),
		envgen.WithLogger(xlog.WithComponent("generator")),
	), nil
}

func (o *rootOptions) names() []string {
	if o.name == "" {
		return nil
	}
	return []string{o.name}
}

func runGenerate(cmd *cobra.Command, opts *rootOptions) error {
	gen, err := opts.generator(cmd)
	if err != nil {
		return err
	}

	if opts.check {
		return runCheck(cmd.Context(), cmd, gen, opts)
	}

	_, err = gen.Make(cmd.Context(), opts.names()...)
	return err
}

func runCheck(ctx context.Context, cmd *cobra.Command, gen *envgen.Generator, opts *rootOptions) error {
	results, err := gen.Check(ctx, opts.names()...)

	var stale *envgen.StaleError
	if errors.As(err, &stale) {
		for _, file := range stale.Files {
			if file.Missing {
				fmt.Fprintf(cmd.OutOrStdout(), "missing: %s (%s)\n", file.Path, file.Env)
				continue
			}
			fmt.Fprint(cmd.OutOrStdout(), file.Diff)
		}
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d environment files up to date\n", len(results))
	return nil
}
