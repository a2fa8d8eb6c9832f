package predict

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/apetrov/finsight/internal/domain"
)

// MonthlyTable is the pivot of normalized entries: one row per observed
// (year, month), one column per fixed category, amounts summed and missing
// combinations filled with zero. Rows are sorted ascending by (year, month);
// this ordering is load-bearing for sequence construction.
type MonthlyTable struct {
	keys     []monthKey
	rows     []map[string]float64
	observed map[string]bool
}

type monthKey struct {
	Year  int
	Month int
}

// BuildMonthlyTable aggregates entries by (year, month, category). Categories
// outside the fixed set are still summed into their row, but only the fixed
// set is guaranteed a column in the numeric views.
func BuildMonthlyTable(entries []Entry) *MonthlyTable {
	byMonth := make(map[monthKey]map[string]float64)
	observed := make(map[string]bool)

	for _, e := range entries {
		key := monthKey{Year: e.Year, Month: e.Month}
		row, ok := byMonth[key]
		if !ok {
			row = make(map[string]float64)
			byMonth[key] = row
		}
		row[e.Category] += e.Amount
		observed[e.Category] = true
	}

	keys := make([]monthKey, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})

	rows := make([]map[string]float64, len(keys))
	for i, k := range keys {
		rows[i] = byMonth[k]
	}

	return &MonthlyTable{keys: keys, rows: rows, observed: observed}
}

// Len returns the number of monthly rows.
func (t *MonthlyTable) Len() int {
	return len(t.keys)
}

// Features returns the calendar features as a Len x 2 matrix with columns
// (month, year).
func (t *MonthlyTable) Features() *mat.Dense {
	if t.Len() == 0 {
		return nil
	}
	m := mat.NewDense(t.Len(), 2, nil)
	for i, k := range t.keys {
		m.Set(i, 0, float64(k.Month))
		m.Set(i, 1, float64(k.Year))
	}
	return m
}

// Targets returns the per-category spend vectors as a Len x 10 matrix with
// columns in domain.Categories order.
func (t *MonthlyTable) Targets() *mat.Dense {
	if t.Len() == 0 {
		return nil
	}
	m := mat.NewDense(t.Len(), len(domain.Categories), nil)
	for i, row := range t.rows {
		for j, cat := range domain.Categories {
			m.Set(i, j, row[cat])
		}
	}
	return m
}

// Observed reports whether the category appeared in any input entry, as
// opposed to being a zero-filled column.
func (t *MonthlyTable) Observed(cat string) bool {
	return t.observed[cat]
}

// CategoryMean returns the arithmetic mean of the category's monthly amounts
// over all rows (zero-filled months included), or 0 for an empty table.
func (t *MonthlyTable) CategoryMean(cat string) float64 {
	if t.Len() == 0 {
		return 0
	}
	vals := make([]float64, t.Len())
	for i, row := range t.rows {
		vals[i] = row[cat]
	}
	return stat.Mean(vals, nil)
}

// BuildSequences emits one training pair per index i in [seqLen, rows): the
// window is rows [i-seqLen, i) of features, the label is row i of targets.
// Both matrices must have the same row count. An input with row count <=
// seqLen yields no pairs.
func BuildSequences(features, targets *mat.Dense, seqLen int) (windows []*mat.Dense, labels [][]float64) {
	if features == nil || targets == nil {
		return nil, nil
	}
	n, _ := features.Dims()
	for i := seqLen; i < n; i++ {
		w := mat.DenseCopyOf(features.Slice(i-seqLen, i, 0, 2))
		windows = append(windows, w)
		labels = append(labels, mat.Row(nil, i, targets))
	}
	return windows, labels
}

// LastWindow returns the most recent seqLen rows of features as a window, or
// nil when fewer rows are available.
func LastWindow(features *mat.Dense, seqLen int) *mat.Dense {
	if features == nil {
		return nil
	}
	n, c := features.Dims()
	if n < seqLen {
		return nil
	}
	return mat.DenseCopyOf(features.Slice(n-seqLen, n, 0, c))
}
