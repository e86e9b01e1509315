package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funblocks/internal/pipeline"
)

var prelude = filepath.Join("..", "..", "internal", "catalog", "testdata", "prelude.yaml")

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "funblocks dev ("))
}

func TestCatalogList(t *testing.T) {
	out, err := run(t, "catalog", "--catalog", prelude, "--category", "Tuple")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Tuple", lines[0])
	assert.Contains(t, lines[1], "fst")
	assert.Contains(t, lines[1], ":: (a, b) -> a")
	assert.Contains(t, lines[1], "First component of a pair.")
	assert.Contains(t, lines[2], "snd")
}

func TestCatalogUnknownCategory(t *testing.T) {
	_, err := run(t, "catalog", "--catalog", prelude, "--category", "Nope")
	assert.EqualError(t, err, `unknown category "Nope"`)
}

func TestCatalogExportRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "prelude.db")
	out, err := run(t, "catalog", "export", db, "--catalog", prelude)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 26 functions")

	out, err = run(t, "catalog", "--catalog", db, "--category", "Functor")
	require.NoError(t, err)
	assert.Contains(t, out, "Functor c => (a -> b) -> c a -> c b")

	_, err = run(t, "catalog", "export", db, "--catalog", prelude)
	assert.ErrorContains(t, err, "already exists")
}

func TestCheckText(t *testing.T) {
	out, err := run(t, "check", filepath.Join("testdata", "square.yaml"), "--catalog", prelude)
	require.NoError(t, err)
	assert.Contains(t, out, "mapped (function #4) ok")
	assert.Contains(t, out, "  outputs: [Int]")
	assert.NotContains(t, out, "INVALID")
}

func TestCheckJSON(t *testing.T) {
	out, err := run(t, "check", filepath.Join("testdata", "mismatch.yaml"), "--catalog", prelude, "-o", "json")
	require.NoError(t, err)

	var r pipeline.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 1, r.Invalid())
	neg, ok := r.Block("neg")
	require.True(t, ok)
	assert.Equal(t, []string{"String"}, neg.Inputs)
}

func TestCheckStrict(t *testing.T) {
	out, err := run(t, "check", filepath.Join("testdata", "mismatch.yaml"), "--catalog", prelude, "--strict")
	assert.EqualError(t, err, "1 invalid blocks")
	assert.Contains(t, out, "neg (function #2) INVALID")
	assert.Contains(t, out, "error:   input 0: no instance")
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing scenario", []string{"check", "nope.yaml", "--catalog", prelude}, "reading scenario nope.yaml"},
		{"bad output", []string{"check", filepath.Join("testdata", "square.yaml"), "--catalog", prelude, "-o", "xml"}, `unknown output format "xml"`},
		{"no args", []string{"check"}, "accepts 1 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
