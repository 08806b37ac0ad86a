package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
	"choromap/internal/merge"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadGeometryAndMerge(t *testing.T) {
	geo := write(t, "states.geojson", `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"code":"A"},"geometry":{"type":"Point","coordinates":[1,2]}},
	  {"type":"Feature","properties":{"code":"B"},"geometry":{"type":"Point","coordinates":[3,4]}}]}`)
	data := write(t, "votes.tsv", "code\tvote\nA\t30\nB\t70\n")

	recs, err := LoadGeometry(geo)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].Attributes["code"])

	ds, err := LoadDataset(data, dataset.CSVOptions{})
	require.NoError(t, err)

	res, err := merge.Merge(recs, ds, merge.NewSpec(merge.On("code")).Value("vote"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, int64(70), res.Entries[1].Value)
	assert.Equal(t, [][2]float64{{3, 4}}, res.Entries[1].Geometry.Points)
}

func TestLoadFeaturesWKTLines(t *testing.T) {
	p := write(t, "shapes.wkt", "POINT(1 2)\n\nLINESTRING(0 0, 1 1)\n")
	fs, err := LoadFeatures(p)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, int64(3), fs[1].Properties["line"])

	p = write(t, "bad.wkt", "POINT(1 2)\nCIRCLE(3)\n")
	_, err = LoadFeatures(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line=2")
}

func TestUnsupportedExtensions(t *testing.T) {
	_, err := LoadFeatures("roads.shp")
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))
	_, err = LoadDataset("votes.xlsx", dataset.CSVOptions{})
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))
}
