// Package classify bins choropleth values into a fixed number of classes.
package classify

import (
	"math"
	"sort"

	cerrors "choromap/internal/errors"
)

// Method selects how class breaks are computed.
type Method string

const (
	// EqualInterval splits [min, max] into equally wide classes.
	EqualInterval Method = "equal"
	// Quantile puts roughly the same number of values in every class.
	Quantile Method = "quantile"
)

// ParseMethod accepts "equal", "equal_interval" and "quantile".
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "equal", "equal_interval":
		return EqualInterval, true
	case "", "quantile":
		return Quantile, true
	}
	return "", false
}

// Classifier maps values to class numbers using upper class bounds.
type Classifier struct {
	// Breaks[i] is the inclusive upper bound of class i.
	Breaks []float64
	Min    float64
}

// Classes returns the number of classes.
func (c *Classifier) Classes() int { return len(c.Breaks) }

// Class returns 0..Classes()-1 for a numeric value and -1 otherwise.
func (c *Classifier) Class(v any) int {
	f, ok := Numeric(v)
	if !ok || len(c.Breaks) == 0 {
		return -1
	}
	for i, b := range c.Breaks {
		if f <= b {
			return i
		}
	}
	return len(c.Breaks) - 1
}

// Bounds returns the lower and upper bound of class i.
func (c *Classifier) Bounds(i int) (float64, float64) {
	lo := c.Min
	if i > 0 {
		lo = c.Breaks[i-1]
	}
	return lo, c.Breaks[i]
}

// New builds a classifier from the numeric members of values. Quantile
// classes never outnumber the distinct values.
func New(values []any, n int, m Method) (*Classifier, error) {
	if n < 1 {
		return nil, cerrors.New(cerrors.KindValidation, "class count must be positive").WithDetail("classes", n)
	}
	var nums []float64
	for _, v := range values {
		if f, ok := Numeric(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return nil, cerrors.New(cerrors.KindValidation, "no numeric values to classify")
	}
	sort.Float64s(nums)
	distinct := 1
	for i := 1; i < len(nums); i++ {
		if nums[i] != nums[i-1] {
			distinct++
		}
	}
	if m == Quantile || distinct == 1 {
		n = min(n, distinct)
	}

	c := &Classifier{Min: nums[0], Breaks: make([]float64, n)}
	switch m {
	case EqualInterval:
		lo, hi := nums[0], nums[len(nums)-1]
		step := (hi - lo) / float64(n)
		for i := 0; i < n-1; i++ {
			c.Breaks[i] = lo + float64(i+1)*step
		}
	case Quantile:
		for i := 0; i < n-1; i++ {
			k := int(math.Ceil(float64(i+1)*float64(len(nums))/float64(n))) - 1
			c.Breaks[i] = nums[max(k, 0)]
		}
	default:
		return nil, cerrors.New(cerrors.KindValidation, "unknown classification method").WithDetail("method", string(m))
	}
	c.Breaks[n-1] = nums[len(nums)-1]
	return c, nil
}

// Numeric converts integer and float scalars to float64. NaN is rejected.
func Numeric(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
