package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/testutil"
)

func TestBuildDirCompilesRepositorySpecs(t *testing.T) {
	v, err := BuildDir(filepath.Join("..", "..", "testdata", "specs"))
	require.NoError(t, err)

	set, errs := CompileSpecs(v, false)
	require.Empty(t, errs)

	assert.Equal(t, testutil.CustomerSchemas(), set.Entities)
	require.Len(t, set.Endpoints, 5)

	ep, ok := set.Endpoint("/notEmpty/customersWithNotEmptyOrders_constVal")
	require.True(t, ok)
	assert.Equal(t, "Customer", ep.Root)
	require.NotNil(t, ep.Filters[0].Const)
	assert.Equal(t, "true", *ep.Filters[0].Const)

	_, err = graph.New(set.Entities)
	require.NoError(t, err)
	assert.Empty(t, ValidateEndpoints(set.Endpoints))
}

func TestBuildDirErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte("package specs\n\nentity: {\n"), 0o644))

	_, err := BuildDir(dir)
	require.Error(t, err)
}

func TestCompileSpecsCollectsErrors(t *testing.T) {
	v := cuecontext.New().CompileString(`
		entity: A: attributes: price: float
		entity: B: attributes: name: string
		endpoint: "/b": {root: "B", filters: [{path: "name", op: "null", bogus: 1}]}
		endpoint: "/c": root: "B"
	`)
	require.NoError(t, v.Err())

	set, errs := CompileSpecs(v, false)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "entity A")
	assert.Contains(t, errs[1].Error(), `endpoint /b`)
	require.Len(t, set.Entities, 1)
	assert.Equal(t, "B", set.Entities[0].Name)
	require.Len(t, set.Endpoints, 1)
	assert.Equal(t, "/c", set.Endpoints[0].Name)

	_, errs = CompileSpecs(v, true)
	assert.Len(t, errs, 1)
}
