package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	fixtureSpecs     = filepath.Join("..", "..", "testdata", "specs")
	fixtureDataset   = filepath.Join("..", "..", "testdata", "data", "customers.yaml")
	fixtureScenarios = filepath.Join("..", "..", "testdata", "scenarios")
)

const minimalSpecs = `
package test

entity: Customer: {
	attributes: {
		firstName: string
		orders: {kind: "to_many", target: "Order"}
	}
}

entity: Order: {
	attributes: {
		item: string
		customer: {kind: "to_one", target: "Customer"}
	}
}

endpoint: "/customers": {
	root: "Customer"
	filters: [{path: "orders", op: "not_empty", params: ["hasOrders"]}]
}
`

// writeSpecs writes content as the only CUE file of a new directory.
func writeSpecs(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs.cue"), []byte(content), 0644))
	return dir
}

// execute runs cmd with args and returns stdout and the error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
