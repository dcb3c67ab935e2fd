package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sciamlab/envgen"
)

type showOptions struct {
	json    bool
	sources bool
}

func newShowCmd(root *rootOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved requirement lines without writing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := root.generator(cmd)
			if err != nil {
				return err
			}

			results, err := gen.PlanAll(cmd.Context(), root.names()...)
			if err != nil {
				return err
			}

			var dumpOpts []envgen.DumpOption
			if opts.json {
				dumpOpts = append(dumpOpts, envgen.AsJSON())
			}
			if opts.sources {
				dumpOpts = append(dumpOpts, envgen.WithSources())
			}
			if err := envgen.DumpPlan(cmd.OutOrStdout(), results, dumpOpts...); err != nil {
				return fmt.Errorf("show: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the plan as JSON")
	cmd.Flags().BoolVar(&opts.sources, "sources", false, "annotate each line with where it came from")

	return cmd
}
