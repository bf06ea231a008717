package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	DB       string
	Seed     string
	Endpoint string
	Params   []string
}

// QueryResult holds the rows one request returned.
type QueryResult struct {
	ExplainResult
	Count int         `json:"count"`
	Rows  []store.Row `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <specs-dir>",
		Short: "Run an endpoint against a database",
		Long: `Evaluate an endpoint's filters against the given parameters and run the
resulting query against a SQLite database.

The database is migrated for the declared entities if needed.`,
		Example: `  sieve query ./specs --db app.db --endpoint /notEmpty/customerOrders --param notEmptyOrders=true`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "database file path (required)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "YAML dataset loaded before the query")
	cmd.Flags().StringVarP(&opts.Endpoint, "endpoint", "e", "", "endpoint name (required)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "request parameter as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}

func runQuery(opts *QueryOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	params, err := parseParams(opts.Params)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}

	env, err := loadEnvironment(formatter, specsDir)
	if err != nil {
		return err
	}
	ep, err := env.bind(formatter, opts.Endpoint)
	if err != nil {
		return err
	}

	st, err := env.openStore(ctx, formatter, opts.DB, opts.Seed)
	if err != nil {
		return err
	}
	defer st.Close()

	explained, pred, err := explain(env.engine, ep, params)
	if err != nil {
		_ = formatter.Error(ErrCodeEvalFailed, err.Error(), map[string]string{"kind": engine.ErrorKind(err)})
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}
	formatter.VerboseLog("SQL: %s %v", explained.SQL, explained.Args)

	rows, err := st.Find(ctx, ep.Root, pred)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	result := QueryResult{ExplainResult: *explained, Count: len(rows), Rows: rows}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputQueryText(formatter, &result, ep.Root.Key)
	return nil
}

func outputQueryText(formatter *OutputFormatter, result *QueryResult, key string) {
	fmt.Fprintf(formatter.Writer, "%s: %d row(s)\n", result.Endpoint, result.Count)
	for _, row := range result.Rows {
		names := make([]string, 0, len(row))
		for name := range row {
			if name != key {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		parts := []string{fmt.Sprintf("%s=%v", key, row[key])}
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%v", name, row[name]))
		}
		fmt.Fprintf(formatter.Writer, "  %s\n", strings.Join(parts, " "))
	}
}
