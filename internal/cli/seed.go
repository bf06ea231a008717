package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	DB string
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	DB      string         `json:"db"`
	Dataset string         `json:"dataset"`
	Rows    map[string]int `json:"rows"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <specs-dir> <dataset.yaml>",
		Short: "Migrate a database and load a YAML dataset",
		Long: `Create the tables of the declared entities in a SQLite database and
insert the rows of a YAML dataset in one transaction.

A database already migrated for different declarations is rejected.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database file path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSeed(opts *SeedOptions, specsDir, dataset string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(formatter, specsDir)
	if err != nil {
		return err
	}

	st, err := env.openStore(commandContext(cmd), formatter, opts.DB, "")
	if err != nil {
		return err
	}
	defer st.Close()

	ds, err := env.seed(commandContext(cmd), formatter, st, dataset)
	if err != nil {
		return err
	}

	result := SeedResult{DB: opts.DB, Dataset: dataset, Rows: map[string]int{}}
	for _, batch := range ds {
		result.Rows[batch.Entity] += len(batch.Rows)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Seeded %s from %s\n", opts.DB, dataset)
	for _, e := range env.graph.Entities() {
		if n, ok := result.Rows[e.Name]; ok {
			fmt.Fprintf(formatter.Writer, "  %s: %d row(s)\n", e.Name, n)
		}
	}
	return nil
}
