package merge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
)

func rec(geom string, attrs Attributes) Record[string] {
	return Record[string]{Geometry: geom, Attributes: attrs}
}

func votes(rows ...dataset.Row) *dataset.Dataset {
	return dataset.New([]string{"code", "vote", "state", "year"}, rows)
}

func TestMergeBasicExample(t *testing.T) {
	records := []Record[string]{
		rec("G1", Attributes{"code": "A"}),
		rec("G2", Attributes{"code": "B"}),
	}
	ds := dataset.New([]string{"code", "vote"}, []dataset.Row{
		{"code": "A", "vote": int64(30)},
		{"code": "B", "vote": int64(70)},
	})

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote"))
	require.NoError(t, err)

	want := []Entry[string]{
		{Index: Index{0}, Geometry: "G1", Value: int64(30), HasValue: true, Attributes: Attributes{"code": "A", "vote": int64(30)}, Position: 0, Row: 0},
		{Index: Index{1}, Geometry: "G2", Value: int64(70), HasValue: true, Attributes: Attributes{"code": "B", "vote": int64(70)}, Position: 1, Row: 1},
	}
	if diff := cmp.Diff(want, res.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Warnings)
}

func TestMergeKeepsOrderAndCount(t *testing.T) {
	const n = 50
	var records []Record[string]
	var rows []dataset.Row
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("K%02d", i)
		records = append(records, rec("G"+code, Attributes{"code": code}))
		// dataset order differs from record order
		rows = append([]dataset.Row{{"code": code, "vote": int64(i * 10)}}, rows...)
	}

	res, err := Merge(records, votes(rows...), NewSpec(On("code")).Value("vote"))
	require.NoError(t, err)
	require.Len(t, res.Entries, n)
	for i, e := range res.Entries {
		assert.Equal(t, Index{i}, e.Index)
		assert.Equal(t, records[i].Geometry, e.Geometry)
		assert.Equal(t, int64(i*10), e.Value)
	}
}

func TestMergeLastRowWins(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": "A"})}
	ds := votes(
		dataset.Row{"code": "A", "vote": int64(1)},
		dataset.Row{"code": "B", "vote": int64(2)},
		dataset.Row{"code": "A", "vote": int64(3)},
	)

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(3), res.Entries[0].Value)
	assert.Equal(t, 2, res.Entries[0].Row)

	dups := res.WarningsOf(cerrors.KindDuplicateKey)
	require.Len(t, dups, 1)
	assert.Equal(t, "A", dups[0].Details["key"])
	assert.Equal(t, 0, dups[0].Details["previous"])
	assert.Equal(t, 2, dups[0].Details["row"])
}

func TestMergeJoinMissSkip(t *testing.T) {
	records := []Record[string]{
		rec("G1", Attributes{"code": "A"}),
		rec("G2", Attributes{"code": "ZZ"}),
		rec("G3", Attributes{"name": "no code"}),
		rec("G4", Attributes{"code": "B"}),
	}
	ds := votes(
		dataset.Row{"code": "A", "vote": int64(30)},
		dataset.Row{"code": "B", "vote": int64(70)},
	)

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote").OnMiss(Skip))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "G1", res.Entries[0].Geometry)
	assert.Equal(t, "G4", res.Entries[1].Geometry)
	// positional index follows the input record, not the output slot
	assert.Equal(t, Index{3}, res.Entries[1].Index)

	misses := res.WarningsOf(cerrors.KindJoinMiss)
	require.Len(t, misses, 2)
	assert.Equal(t, 1, misses[0].Details["position"])
	assert.Equal(t, "ZZ", misses[0].Details["key"])
	assert.Equal(t, 2, misses[1].Details["position"])
	assert.Equal(t, "code", misses[1].Details["attribute"])
}

func TestMergeJoinMissAbort(t *testing.T) {
	records := []Record[string]{
		rec("G1", Attributes{"code": "A"}),
		rec("G2", Attributes{"code": "ZZ"}),
	}
	ds := votes(dataset.Row{"code": "A", "vote": int64(30)})

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote").OnMiss(Abort))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, cerrors.Is(err, cerrors.KindJoinMiss))
	assert.Contains(t, err.Error(), "position=1")
}

func TestMergeMissingColumn(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": "A"})}
	ds := votes(dataset.Row{"code": "A", "vote": int64(30)})

	tests := []struct {
		name string
		spec *Spec
		col  string
	}{
		{"value", NewSpec(On("code")).Value("turnout"), "turnout"},
		{"index", NewSpec(On("code")).Index("state", "county"), "county"},
		{"join", NewSpec(Pair("code", "fips")), "fips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Merge(records, ds, tt.spec)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, cerrors.Is(err, cerrors.KindMissingColumn))
			assert.Equal(t, tt.col, err.(*cerrors.Error).Details["column"])
		})
	}
}

func TestMergeMissingColumnBeforeJoin(t *testing.T) {
	// every record would miss, but the column check must win under Abort
	records := []Record[string]{rec("G1", Attributes{"code": "nope"})}
	ds := votes(dataset.Row{"code": "A", "vote": int64(30)})
	_, err := Merge(records, ds, NewSpec(On("code")).Value("turnout").OnMiss(Abort))
	assert.True(t, cerrors.Is(err, cerrors.KindMissingColumn))
	assert.False(t, cerrors.Is(err, cerrors.KindJoinMiss))
}

func TestMergeValidation(t *testing.T) {
	ds := votes(dataset.Row{"code": "A"})
	_, err := Merge[string](nil, ds, NewSpec(On("code")))
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))

	records := []Record[string]{rec("G1", Attributes{"code": "A"})}
	_, err = Merge(records, ds, nil)
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))
	_, err = Merge(records, ds, NewSpec(On()))
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))
	_, err = Merge(records, nil, NewSpec(On("code")))
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))
}

func TestMergeCompositeIndexAndDuplicates(t *testing.T) {
	records := []Record[string]{
		rec("G1", Attributes{"code": "A"}),
		rec("G2", Attributes{"code": "B"}),
		rec("G3", Attributes{"code": "C"}),
	}
	ds := votes(
		dataset.Row{"code": "A", "vote": int64(1), "state": "North", "year": int64(2020)},
		dataset.Row{"code": "B", "vote": int64(2), "state": "South", "year": int64(2020)},
		dataset.Row{"code": "C", "vote": int64(3), "state": "North", "year": 2020.0},
	)

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote").Index("state", "year"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, Index{"North", int64(2020)}, res.Entries[0].Index)
	assert.Equal(t, "(South, 2020)", res.Entries[1].Index.String())

	dups := res.WarningsOf(cerrors.KindDuplicateIndex)
	require.Len(t, dups, 1)
	assert.Equal(t, 0, dups[0].Details["first"])
	assert.Equal(t, 2, dups[0].Details["position"])
}

func TestMergeWithoutValue(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": "A"})}
	ds := votes(dataset.Row{"code": "A", "vote": int64(30)})

	res, err := Merge(records, ds, NewSpec(On("code")))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.False(t, res.Entries[0].HasValue)
	assert.Nil(t, res.Entries[0].Value)
	assert.Equal(t, []any{nil}, res.Values())
}

func TestMergeNullValueIsMissing(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": "A"})}
	ds := votes(dataset.Row{"code": "A", "vote": nil})

	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote"))
	require.NoError(t, err)
	assert.False(t, res.Entries[0].HasValue)
}

func TestMergeDatasetWinsOnCollision(t *testing.T) {
	attrs := Attributes{"code": "A", "name": "from geometry", "area": 12.5}
	records := []Record[string]{rec("G1", attrs)}
	ds := dataset.New([]string{"code", "name"}, []dataset.Row{{"code": "A", "name": "from dataset"}})

	res, err := Merge(records, ds, NewSpec(On("code")))
	require.NoError(t, err)
	got := res.Entries[0].Attributes
	assert.Equal(t, "from dataset", got["name"])
	assert.Equal(t, 12.5, got["area"])
	// inputs are untouched
	assert.Equal(t, "from geometry", attrs["name"])
	assert.Len(t, attrs, 3)
}

func TestMergeMappedAndCompositeKeys(t *testing.T) {
	records := []Record[string]{
		rec("G1", Attributes{"STATE": "al", "YR": 2020.0}),
		rec("G2", Attributes{"STATE": "AK ", "YR": 2020.0}),
	}
	ds := dataset.New([]string{"state", "year", "vote"}, []dataset.Row{
		{"state": "AL", "year": int64(2020), "vote": int64(5)},
		{"state": "AK", "year": int64(2020), "vote": int64(6)},
	})

	js := OnFields(map[string]string{"YR": "year", "STATE": "state"})
	assert.Equal(t, []KeyPair{{"STATE", "state"}, {"YR", "year"}}, js.Pairs())

	res, err := Merge(records, ds, NewSpec(js).Value("vote").TrimSpace(true).FoldCase(true))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, int64(5), res.Entries[0].Value)
	assert.Equal(t, int64(6), res.Entries[1].Value)

	// without normalisation both miss
	res, err = Merge(records, ds, NewSpec(js).Value("vote"))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	misses := res.WarningsOf(cerrors.KindJoinMiss)
	require.Len(t, misses, 2)
	assert.Equal(t, "(al, 2020)", misses[0].Details["key"])
}

func TestMergeCompositeKeyPartsStayApart(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"a": "x", "b": "y\x1fs:z"})}
	ds := dataset.New([]string{"a", "b"}, []dataset.Row{{"a": "x\x1fs:y", "b": "z"}})

	res, err := Merge(records, ds, NewSpec(On("a", "b")).OnMiss(Abort))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, cerrors.Is(err, cerrors.KindJoinMiss))
}

func TestMergeNumericKeysAcrossTypes(t *testing.T) {
	// GeoJSON numbers decode as float64, CSV cells as int64
	records := []Record[string]{rec("G1", Attributes{"fips": 6.0})}
	ds := dataset.New([]string{"fips", "vote"}, []dataset.Row{{"fips": int64(6), "vote": int64(1)}})
	res, err := Merge(records, ds, NewSpec(On("fips")).Value("vote"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	// "06" and 6 are different keys
	records = []Record[string]{rec("G1", Attributes{"fips": "06"})}
	res, err = Merge(records, ds, NewSpec(On("fips")).Value("vote"))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
}

func TestMergeNullKeysNeverMatch(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": nil})}
	ds := votes(dataset.Row{"code": nil, "vote": int64(1)})
	res, err := Merge(records, ds, NewSpec(On("code")).Value("vote"))
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Len(t, res.WarningsOf(cerrors.KindJoinMiss), 1)
	assert.Empty(t, res.WarningsOf(cerrors.KindDuplicateKey))
}

func TestMergeLogsWarnings(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	records := []Record[string]{rec("G1", Attributes{"code": "ZZ"})}
	ds := votes(dataset.Row{"code": "A"})

	_, err := Merge(records, ds, NewSpec(On("code")).Logger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("no dataset row for record key").Len())
	assert.Equal(t, 1, logs.FilterMessage("merge finished").Len())
}

func TestMergeConcurrentCalls(t *testing.T) {
	records := []Record[string]{rec("G1", Attributes{"code": "A"}), rec("G2", Attributes{"code": "B"})}
	ds := votes(dataset.Row{"code": "A", "vote": int64(1)}, dataset.Row{"code": "B", "vote": int64(2)})
	spec := NewSpec(On("code")).Value("vote")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Merge(records, ds, spec)
			assert.NoError(t, err)
			assert.Equal(t, []any{int64(1), int64(2)}, res.Values())
		}()
	}
	wg.Wait()
}

func TestParseMissPolicy(t *testing.T) {
	p, ok := ParseMissPolicy("abort")
	assert.True(t, ok)
	assert.Equal(t, Abort, p)
	assert.Equal(t, "abort", p.String())

	p, ok = ParseMissPolicy("")
	assert.True(t, ok)
	assert.Equal(t, Skip, p)

	_, ok = ParseMissPolicy("retry")
	assert.False(t, ok)
}
