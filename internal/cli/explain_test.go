package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/engine"
)

const customersSelect = "SELECT root.first_name AS firstName, root.gold, root.id, root.last_name AS lastName FROM customers AS root"

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=", "a=2", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, engine.Params{
		"a": {"1", "2"},
		"b": {""},
		"c": {"x=y"},
	}, params)
	assert.Equal(t, []string{"a", "b", "c"}, paramNames(params))

	_, err = parseParams([]string{"novalue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected name=value")

	_, err = parseParams([]string{"=v"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty name")
}

func TestExplainText(t *testing.T) {
	out, err := execute(NewExplainCommand(&RootOptions{Format: "text"}),
		fixtureSpecs, "--endpoint", "/customers", "--param", "hasOrders=true", "--param", "gold=true")
	require.NoError(t, err)

	assert.Contains(t, out, "Endpoint:    /customers (Customer)")
	assert.Contains(t, out, "Params:      gold=true hasOrders=true")
	assert.Contains(t, out, customersSelect+" WHERE EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id) AND root.gold = ?")
	assert.Contains(t, out, "Args:        [1]")
	assert.Contains(t, out, "Fingerprint: ")
}

func TestExplainJSON(t *testing.T) {
	out, err := execute(NewExplainCommand(&RootOptions{Format: "json"}),
		fixtureSpecs, "-e", "/notEmpty/customerOrders")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ExplainResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, customersSelect+" ORDER BY root.id COLLATE BINARY ASC", resp.Data.SQL)
	assert.Empty(t, resp.Data.Args)
	assert.NotEmpty(t, resp.Data.Fingerprint)
}

func TestExplainFingerprintIsStable(t *testing.T) {
	run := func(args ...string) string {
		out, err := execute(NewExplainCommand(&RootOptions{Format: "json"}), args...)
		require.NoError(t, err)
		var resp struct {
			Data ExplainResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		return resp.Data.Fingerprint
	}

	a := run(fixtureSpecs, "-e", "/customers", "-p", "hasOrders=true")
	b := run(fixtureSpecs, "-e", "/customers", "-p", "hasOrders=true", "-p", "unrelated=1")
	c := run(fixtureSpecs, "-e", "/customers", "-p", "hasOrders=false")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestExplainErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		wantOut  string
	}{
		{
			name:     "argument conversion",
			args:     []string{fixtureSpecs, "-e", "/customers", "-p", "hasOrders=TRUE"},
			exitCode: ExitFailure,
			wantOut:  ErrCodeEvalFailed,
		},
		{
			name:     "unknown endpoint",
			args:     []string{fixtureSpecs, "-e", "/nope"},
			exitCode: ExitCommandError,
			wantOut:  `unknown endpoint "/nope"`,
		},
		{
			name:     "malformed param",
			args:     []string{fixtureSpecs, "-e", "/customers", "-p", "hasOrders"},
			exitCode: ExitCommandError,
			wantOut:  "expected name=value",
		},
		{
			name:     "missing specs",
			args:     []string{"/nonexistent/specs", "-e", "/customers"},
			exitCode: ExitCommandError,
			wantOut:  "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewExplainCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestExplainArgumentConversionJSON(t *testing.T) {
	out, err := execute(NewExplainCommand(&RootOptions{Format: "json"}),
		fixtureSpecs, "-e", "/customers", "-p", "gold=yes")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeEvalFailed, resp.Error.Code)
	assert.Equal(t, map[string]any{"kind": engine.KindArgumentConversion}, resp.Error.Details)
}

func TestQueryWithSeed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "q.db")

	out, err := execute(NewQueryCommand(&RootOptions{Format: "json"}),
		fixtureSpecs, "--db", db, "--seed", fixtureDataset,
		"-e", "/notEmpty/customerOrders", "-p", "notEmptyOrders=true")
	require.NoError(t, err)

	var resp struct {
		Data QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 5, resp.Data.Count)
	require.Len(t, resp.Data.Rows, 5)
	assert.Equal(t, "Homer", resp.Data.Rows[0]["firstName"])
}

func TestSeedThenQuery(t *testing.T) {
	db := filepath.Join(t.TempDir(), "s.db")

	out, err := execute(NewSeedCommand(&RootOptions{Format: "text"}), fixtureSpecs, fixtureDataset, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Seeded")
	assert.Contains(t, out, "Customer: 10 row(s)")
	assert.Contains(t, out, "Order: 6 row(s)")

	out, err = execute(NewQueryCommand(&RootOptions{Format: "text"}),
		fixtureSpecs, "--db", db, "-e", "/notEmpty/customerPhoneNumbers", "-p", "notEmptyPhoneNumbers=true")
	require.NoError(t, err)
	assert.Contains(t, out, "/notEmpty/customerPhoneNumbers: 1 row(s)")
	assert.Contains(t, out, "id=9 firstName=Barry gold=false lastName=Benson")
}

func TestSeedJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "s.db")

	out, err := execute(NewSeedCommand(&RootOptions{Format: "json"}), fixtureSpecs, fixtureDataset, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data SeedResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, map[string]int{"Customer": 10, "Order": 6}, resp.Data.Rows)
}

func TestSeedSchemaMismatch(t *testing.T) {
	db := filepath.Join(t.TempDir(), "m.db")

	_, err := execute(NewSeedCommand(&RootOptions{Format: "text"}), fixtureSpecs, fixtureDataset, "--db", db)
	require.NoError(t, err)

	out, err := execute(NewQueryCommand(&RootOptions{Format: "text"}),
		writeSpecs(t, minimalSpecs), "--db", db, "-e", "/customers")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeStoreFailed)
}

func TestServeRejectsUnboundEndpoint(t *testing.T) {
	dir := writeSpecs(t, minimalSpecs+`
endpoint: "/health": {
	root: "Customer"
	filters: []
}
`)

	out, err := execute(NewServeCommand(&RootOptions{Format: "text"}), dir, "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "reserved")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cmd := NewServeCommand(&RootOptions{Format: "text"})
	cmd.SetContext(ctx)

	out, err := execute(cmd, fixtureSpecs, "--seed", fixtureDataset, "--addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Serving 5 endpoint(s) on 127.0.0.1:0")
}
