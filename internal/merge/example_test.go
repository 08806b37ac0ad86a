package merge_test

import (
	"fmt"

	"choromap/internal/dataset"
	"choromap/internal/merge"
)

func ExampleMerge() {
	records := []merge.Record[string]{
		{Geometry: "G1", Attributes: merge.Attributes{"code": "A"}},
		{Geometry: "G2", Attributes: merge.Attributes{"code": "B"}},
		{Geometry: "G3", Attributes: merge.Attributes{"code": "C"}},
	}
	votes := dataset.New([]string{"code", "vote"}, []dataset.Row{
		{"code": "A", "vote": int64(30)},
		{"code": "B", "vote": int64(70)},
	})

	res, err := merge.Merge(records, votes, merge.NewSpec(merge.On("code")).Value("vote"))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range res.Entries {
		fmt.Println(e.Index, e.Geometry, e.Value)
	}
	for _, w := range res.Warnings {
		fmt.Println(w)
	}
	// Output:
	// 0 G1 30
	// 1 G2 70
	// join_miss: no dataset row for record key (key=C, position=2)
}
