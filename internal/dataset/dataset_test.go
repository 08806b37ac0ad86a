package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "choromap/internal/errors"
)

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"30", int64(30)},
		{"-4", int64(-4)},
		{"0", int64(0)},
		{"0.5", 0.5},
		{"1e3", 1000.0},
		{"01", "01"},
		{"-007", "-007"},
		{"TRUE", true},
		{"false", false},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{"Alabama", "Alabama"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScalar(tt.in))
		})
	}
}

func TestNewDropsDuplicateColumns(t *testing.T) {
	d := New([]string{"code", "vote", "code"}, []Row{{"code": "A", "vote": int64(1)}})
	assert.Equal(t, []string{"code", "vote"}, d.Columns())
	assert.True(t, d.HasColumn("vote"))
	assert.False(t, d.HasColumn("state"))
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, int64(1), d.Row(0)["vote"])
}

func TestReadCSV(t *testing.T) {
	in := "\ufeffcode, vote ,state\nA,30,Alabama\nB, 70 ,\nC\n"
	d, err := ReadCSV(strings.NewReader(in), CSVOptions{TrimSpace: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"code", "vote", "state"}, d.Columns())
	require.Equal(t, 3, d.Len())
	assert.Equal(t, map[string]any{"code": "A", "vote": int64(30), "state": "Alabama"}, d.Row(0))
	assert.Equal(t, map[string]any{"code": "B", "vote": int64(70), "state": nil}, d.Row(1))
	assert.Equal(t, map[string]any{"code": "C", "vote": nil, "state": nil}, d.Row(2))
}

func TestReadCSVKeepsSpaceUnlessTrimmed(t *testing.T) {
	in := "code, name\n A, Alpha \n"
	d, err := ReadCSV(strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "name"}, d.Columns())
	assert.Equal(t, map[string]any{"code": " A", "name": " Alpha "}, d.Row(0))
}

func TestReadCSVDelimiterAndRawStrings(t *testing.T) {
	in := "fips;rate\n01;3.5\n"
	d, err := ReadCSV(strings.NewReader(in), CSVOptions{Delimiter: ';', RawStrings: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fips": "01", "rate": "3.5"}, d.Row(0))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	assert.True(t, cerrors.Is(err, cerrors.KindParse))

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"), CSVOptions{})
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, cerrors.KindParse))
	assert.Contains(t, err.Error(), "line=2")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{})
	assert.True(t, cerrors.Is(err, cerrors.KindFile))
}

func TestLoadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "votes.json")
	body := `[{"code":"A","vote":30,"share":0.25},{"vote":70,"code":"B","flag":true}]`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	d, err := LoadJSON(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "vote", "share", "flag"}, d.Columns())
	assert.Equal(t, map[string]any{"code": "A", "vote": int64(30), "share": 0.25}, d.Row(0))
	assert.Equal(t, map[string]any{"code": "B", "vote": int64(70), "flag": true}, d.Row(1))
}

func TestDecodeJSONRejectsObjects(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"code":"A"}`))
	assert.True(t, cerrors.Is(err, cerrors.KindParse))
}
