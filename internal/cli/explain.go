package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/store"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Endpoint string
	Params   []string
}

// ExplainResult is the query one request to an endpoint would run.
type ExplainResult struct {
	Endpoint    string              `json:"endpoint"`
	Root        string              `json:"root"`
	Params      map[string][]string `json:"params"`
	SQL         string              `json:"sql"`
	Args        []any               `json:"args"`
	Fingerprint string              `json:"fingerprint"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <specs-dir>",
		Short: "Show the SQL an endpoint runs for a set of parameters",
		Long: `Evaluate an endpoint's filters against the given parameters and print
the resulting SQL, its arguments and the predicate fingerprint.

No database is opened.`,
		Example: `  sieve explain ./specs --endpoint /customers --param hasOrders=true --param gold=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Endpoint, "endpoint", "e", "", "endpoint name (required)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "request parameter as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("endpoint")

	return cmd
}

func runExplain(opts *ExplainOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

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

	result, _, err := explain(env.engine, ep, params)
	if err != nil {
		_ = formatter.Error(ErrCodeEvalFailed, err.Error(), map[string]string{"kind": engine.ErrorKind(err)})
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputExplainText(formatter, result)
	return nil
}

// explain evaluates ep against params and compiles the root query.
func explain(eng *engine.Engine, ep *engine.Endpoint, params engine.Params) (*ExplainResult, queryir.Predicate, error) {
	pred, err := eng.EvaluateEndpoint(ep, params)
	if err != nil {
		return nil, nil, err
	}
	sqlText, args, err := store.Explain(ep.Root, pred)
	if err != nil {
		return nil, nil, err
	}
	fp, err := queryir.Fingerprint(pred)
	if err != nil {
		return nil, nil, err
	}
	if args == nil {
		args = []any{}
	}
	return &ExplainResult{
		Endpoint:    ep.Name,
		Root:        ep.Root.Name,
		Params:      params,
		SQL:         sqlText,
		Args:        args,
		Fingerprint: fp,
	}, pred, nil
}

func outputExplainText(formatter *OutputFormatter, result *ExplainResult) {
	fmt.Fprintf(formatter.Writer, "Endpoint:    %s (%s)\n", result.Endpoint, result.Root)
	if len(result.Params) > 0 {
		parts := make([]string, 0, len(result.Params))
		for _, name := range paramNames(result.Params) {
			for _, v := range result.Params[name] {
				parts = append(parts, name+"="+v)
			}
		}
		fmt.Fprintf(formatter.Writer, "Params:      %s\n", strings.Join(parts, " "))
	}
	fmt.Fprintf(formatter.Writer, "SQL:         %s\n", result.SQL)
	fmt.Fprintf(formatter.Writer, "Args:        %v\n", result.Args)
	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", result.Fingerprint)
}
