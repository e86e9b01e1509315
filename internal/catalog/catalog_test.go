package catalog

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadYAMLPrelude(t *testing.T) {
	c, err := LoadYAML(filepath.Join("testdata", "prelude.yaml"))
	require.NoError(t, err)

	e, ok := c.Entry("map")
	require.True(t, ok)
	assert.Equal(t, "List", e.Category)
	assert.Equal(t, "(a -> b) -> [a] -> [b]", e.Signature)
	assert.NotEmpty(t, e.Doc)

	_, ok = c.Entry("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"Basics", "Arithmetic", "Comparison", "List", "Tuple", "Functor"}, c.Categories())

	arith := c.Category("Arithmetic")
	require.Len(t, arith, 5)
	assert.Equal(t, "(+)", arith[0].Name)
	assert.Nil(t, c.Category("Unknown"))

	classes := c.Classes()
	require.NotEmpty(t, classes)
	assert.Equal(t, "Num", classes[0].Name)
	assert.Equal(t, []string{"Int", "Integer", "Float", "Double"}, classes[0].Instances)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "not yaml",
			input:   "functions: [",
			wantErr: "catalog test.yaml: parsing: ",
		},
		{
			name:    "empty",
			input:   "classes: []",
			wantErr: "catalog test.yaml: no functions defined",
		},
		{
			name: "missing signature",
			input: `
functions:
  - name: id
    category: Basics
`,
			wantErr: "catalog test.yaml: functions[0] (id): signature is required",
		},
		{
			name: "duplicate function",
			input: `
functions:
  - {name: id, category: A, signature: a -> a}
  - {name: id, category: B, signature: b -> b}
`,
			wantErr: "catalog test.yaml: functions[1]: duplicate name: id",
		},
		{
			name: "lowercase class",
			input: `
classes:
  - name: num
    instances: [Int]
functions:
  - {name: id, category: A, signature: a -> a}
`,
			wantErr: `catalog test.yaml: classes[0]: name "num" is not a capitalized name`,
		},
		{
			name: "class without instances",
			input: `
classes:
  - name: Num
functions:
  - {name: id, category: A, signature: a -> a}
`,
			wantErr: "catalog test.yaml: classes[0]: instances is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.input), "test.yaml")
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
			assert.Equal(t, "test.yaml", le.Source)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuplicateNameIsDetectable(t *testing.T) {
	_, err := New(nil, []Entry{
		{Name: "id", Category: "A", Signature: "a -> a"},
		{Name: "id", Category: "A", Signature: "a -> a"},
	})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestYAMLRoundTrip(t *testing.T) {
	c, err := LoadYAML(filepath.Join("testdata", "prelude.yaml"))
	require.NoError(t, err)

	data, err := yaml.Marshal(c)
	require.NoError(t, err)

	again, err := ParseYAML(data, "roundtrip")
	require.NoError(t, err)
	assert.Equal(t, c.Entries(), again.Entries())
	assert.Equal(t, c.Classes(), again.Classes())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, err := LoadYAML(filepath.Join("testdata", "prelude.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, WriteSQL(ctx, db, src))
	require.NoError(t, db.Close())

	c, err := LoadSQLite(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, src.Entries(), c.Entries())
	assert.Equal(t, src.Categories(), c.Categories())

	assert.Equal(t, src.Classes(), c.Classes())
}

func TestLoadSQLiteWithoutSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := LoadSQLite(context.Background(), path)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.Source)
}

func TestLoadSQLiteMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.db")
	_, err := LoadSQLite(context.Background(), path)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "failed load left a file behind")
}
