package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
)

func TestCompileValidSpecs(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), fixtureSpecs)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 entity(s), 5 endpoint(s), 10 filter(s)")
	assert.Contains(t, out, "Customer: 5 attribute(s)")
	assert.Contains(t, out, "/orders → Order: 3 filter(s)")
}

func TestCompileValidSpecsJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), fixtureSpecs)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ir.SpecSet `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Entities, 2)
	assert.Len(t, resp.Data.Endpoints, 5)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), fixtureSpecs, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote IR to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result ir.SpecSet
	require.NoError(t, json.Unmarshal(data, &result))
	ep, ok := result.Endpoint("/notEmpty/customersWithNotEmptyOrders_constVal")
	require.True(t, ok)
	require.NotNil(t, ep.Filters[0].Const)
	assert.Equal(t, "true", *ep.Filters[0].Const)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestCompileInvalidSpec(t *testing.T) {
	dir := writeSpecs(t, `
package test

entity: Bad: {
	attributes: {
		price: float
	}
}

endpoint: "/bad": {
	filters: []
}
`)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed with 2 error(s)")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "entity Bad: type: float types are forbidden")
	assert.Contains(t, out, "endpoint /bad: root: root entity is required")
}

func TestCompileInvalidSpecJSON(t *testing.T) {
	dir := writeSpecs(t, `
package test

endpoint: "/bad": {
	filters: []
}
`)

	out, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E111", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "root entity is required")
}

func TestCompileCUESyntaxError(t *testing.T) {
	dir := writeSpecs(t, "package test\n\nentity: {\n")

	_, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCalculateStats(t *testing.T) {
	stats := calculateStats(&ir.SpecSet{
		Entities: []ir.EntitySchema{{Name: "A"}},
		Endpoints: []ir.EndpointSpec{
			{Name: "/a", Filters: []ir.FilterSpec{{}, {}}},
			{Name: "/b", Filters: []ir.FilterSpec{{}}},
		},
	})
	assert.Equal(t, CompilationStats{EntityCount: 1, EndpointCount: 2, FilterCount: 3}, stats)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, "E102", MapFieldToErrorCode("attributes"))
	assert.Equal(t, "E104", MapFieldToErrorCode("type"))
	assert.Equal(t, "E104", MapFieldToErrorCode("attributes.price.type"))
	assert.Equal(t, "E111", MapFieldToErrorCode("root"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("filters[0].bogus"))
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for _, name := range []string{"b.cue", "a.cue", "nested/c.cue", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("package x\n"), 0644))
	}

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "b.cue"),
		filepath.Join(dir, "nested", "c.cue"),
	}, files)
}
