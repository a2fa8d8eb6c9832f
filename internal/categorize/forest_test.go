package categorize

import (
	"encoding/json"
	"testing"
)

// separableData is trivially splittable on feature 0.
func separableData() ([][]float64, []int) {
	x := [][]float64{
		{0.1, 5}, {0.2, 3}, {0.15, 8}, {0.3, 1},
		{0.9, 4}, {0.8, 6}, {0.85, 2}, {0.95, 7},
	}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return x, y
}

func TestForestLearnsSeparableData(t *testing.T) {
	x, y := separableData()
	f := TrainForest(x, y, 2, 42)

	if len(f.Trees) != defaultTreeCount {
		t.Fatalf("got %d trees, want %d", len(f.Trees), defaultTreeCount)
	}

	for i, row := range x {
		class, confidence := f.Predict(row)
		if class != y[i] {
			t.Errorf("row %d classified %d, want %d", i, class, y[i])
		}
		if confidence <= 0.5 || confidence > 1 {
			t.Errorf("row %d confidence %v outside (0.5, 1]", i, confidence)
		}
	}

	if class, _ := f.Predict([]float64{0.05, 9}); class != 0 {
		t.Errorf("unseen low point classified %d, want 0", class)
	}
	if class, _ := f.Predict([]float64{0.99, 0}); class != 1 {
		t.Errorf("unseen high point classified %d, want 1", class)
	}
}

func TestForestDeterministicForSeed(t *testing.T) {
	x, y := separableData()
	a := TrainForest(x, y, 2, 7)
	b := TrainForest(x, y, 2, 7)

	probe := []float64{0.5, 5}
	classA, confA := a.Predict(probe)
	classB, confB := b.Predict(probe)
	if classA != classB || confA != confB {
		t.Errorf("same seed diverged: (%d, %v) vs (%d, %v)", classA, confA, classB, confB)
	}
}

func TestForestJSONRoundTrip(t *testing.T) {
	x, y := separableData()
	f := TrainForest(x, y, 2, 42)

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored := &Forest{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, row := range x {
		wc, wf := f.Predict(row)
		gc, gf := restored.Predict(row)
		if wc != gc || wf != gf {
			t.Errorf("restored forest diverged on %v: (%d, %v) vs (%d, %v)", row, gc, gf, wc, wf)
		}
	}
}

func TestForestSingleClass(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	y := []int{0, 0, 0}
	f := TrainForest(x, y, 1, 42)

	class, confidence := f.Predict([]float64{2, 3})
	if class != 0 || confidence != 1 {
		t.Errorf("single-class forest predicted (%d, %v), want (0, 1)", class, confidence)
	}
}
