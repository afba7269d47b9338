// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anonymize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tbl := New(map[string]string{"Ana Ruiz": "R1", "Pat Lead": "Pat Lead"}, nil)

	tests := []struct {
		in, want string
	}{
		{"Ana Ruiz", "R1"},
		{"  Ana Ruiz ", "R1"},
		{"Pat Lead", "Pat Lead"},
		{"Unknown Person", "Unknown Person"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tbl.Name(tt.in), "input %q", tt.in)
	}
}

func TestTitle(t *testing.T) {
	tbl := New(
		map[string]string{"Ana Ruiz": "R1", "Ana Ruiz-Lopez": "R2", "Pat Lead": "Pat Lead"},
		map[string]string{"Ana's": "R1's"},
	)

	assert.Equal(t, "@analysis/R2 data with R1", tbl.Title("@analysis/Ana Ruiz-Lopez data with Ana Ruiz"))
	assert.Equal(t, "[[ISS]] - R1's idea", tbl.Title("[[ISS]] - Ana's idea"))
	assert.Equal(t, "Pat Lead review", tbl.Title("Pat Lead review"))
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	assert.Equal(t, "Ana", tbl.Name("Ana"))
	assert.Equal(t, "Ana's", tbl.Title("Ana's"))
	assert.Zero(t, tbl.Len())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pseudonyms.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[names]
"Ana Ruiz" = "R1"
"Bo Chen" = "R2"

[fragments]
"Bo's" = "R2's"
`), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "R2", tbl.Name("Bo Chen"))
	assert.Equal(t, "R2's run", tbl.Title("Bo's run"))

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
