package merge

import (
	"sort"

	"go.uber.org/zap"

	"choromap/internal/logger"
)

// KeyPair names the record attribute and dataset column that must match.
type KeyPair struct {
	Record  string
	Dataset string
}

// JoinSpec is the ordered list of key pairs a record and a row are matched on.
type JoinSpec struct {
	pairs []KeyPair
}

// On joins on one or more names used verbatim on both sides.
func On(names ...string) JoinSpec {
	js := JoinSpec{}
	for _, n := range names {
		js.pairs = append(js.pairs, KeyPair{Record: n, Dataset: n})
	}
	return js
}

// Pair joins a record attribute against a differently named dataset column.
func Pair(recordAttr, datasetCol string) JoinSpec {
	return JoinSpec{pairs: []KeyPair{{Record: recordAttr, Dataset: datasetCol}}}
}

// OnFields joins on an explicit {record attribute: dataset column} mapping.
// Pairs are ordered by record attribute name.
func OnFields(m map[string]string) JoinSpec {
	js := JoinSpec{}
	for r, d := range m {
		js.pairs = append(js.pairs, KeyPair{Record: r, Dataset: d})
	}
	sort.Slice(js.pairs, func(i, j int) bool { return js.pairs[i].Record < js.pairs[j].Record })
	return js
}

// Pairs returns a copy of the key pairs.
func (js JoinSpec) Pairs() []KeyPair {
	out := make([]KeyPair, len(js.pairs))
	copy(out, js.pairs)
	return out
}

// MissPolicy decides what happens to a record whose key has no dataset row.
type MissPolicy int

const (
	// Skip drops the record and reports a JoinMiss warning.
	Skip MissPolicy = iota
	// Abort fails the merge on the first JoinMiss.
	Abort
)

func (p MissPolicy) String() string {
	if p == Abort {
		return "abort"
	}
	return "skip"
}

// ParseMissPolicy maps "skip" and "abort" to a MissPolicy.
func ParseMissPolicy(s string) (MissPolicy, bool) {
	switch s {
	case "", "skip":
		return Skip, true
	case "abort":
		return Abort, true
	}
	return Skip, false
}

// Spec configures a merge. Build one with NewSpec and the chained setters.
type Spec struct {
	join        JoinSpec
	valueField  string
	indexFields []string
	policy      MissPolicy
	trimSpace   bool
	foldCase    bool
	log         *zap.Logger
}

// NewSpec returns a spec joining on js with the Skip policy and no value field.
func NewSpec(js JoinSpec) *Spec {
	return &Spec{join: js, log: zap.NewNop()}
}

// Value sets the dataset column carried as each entry's value.
func (s *Spec) Value(field string) *Spec {
	s.valueField = field
	return s
}

// Index sets the dataset columns that form each entry's index tuple.
func (s *Spec) Index(fields ...string) *Spec {
	s.indexFields = append([]string(nil), fields...)
	return s
}

func (s *Spec) OnMiss(p MissPolicy) *Spec {
	s.policy = p
	return s
}

// TrimSpace trims surrounding whitespace from string keys before matching.
func (s *Spec) TrimSpace(on bool) *Spec {
	s.trimSpace = on
	return s
}

// FoldCase matches string keys case-insensitively.
func (s *Spec) FoldCase(on bool) *Spec {
	s.foldCase = on
	return s
}

func (s *Spec) Logger(l *zap.Logger) *Spec {
	s.log = logger.OrNop(l)
	return s
}

func (s *Spec) Join() JoinSpec         { return s.join }
func (s *Spec) ValueField() string     { return s.valueField }
func (s *Spec) IndexFields() []string  { return append([]string(nil), s.indexFields...) }
func (s *Spec) MissPolicy() MissPolicy { return s.policy }
