package sage

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sagego/pkg/errors"
)

func TestImportanceTrackerMatchesDirectStatistics(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const (
		d       = 4
		batches = 7
		rows    = 13
	)

	tracker := NewImportanceTracker(d)
	all := make([][]float64, d)

	for b := 0; b < batches; b++ {
		scores := mat.NewDense(rows, d, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < d; j++ {
				v := rng.NormFloat64()*float64(j+1) + float64(j)
				scores.Set(i, j, v)
				all[j] = append(all[j], v)
			}
		}
		if err := tracker.Update(scores); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	gotMean := tracker.Scores()
	gotVar := tracker.Var()
	n := float64(batches * rows)
	for j := 0; j < d; j++ {
		wantMean := stat.Mean(all[j], nil)
		if math.Abs(gotMean.AtVec(j)-wantMean) > 1e-10 {
			t.Errorf("feature %d mean = %v, want %v", j, gotMean.AtVec(j), wantMean)
		}

		// Variance of the mean estimator: population M2/N².
		var m2 float64
		for _, v := range all[j] {
			diff := v - wantMean
			m2 += diff * diff
		}
		wantVar := m2 / (n * n)
		if math.Abs(gotVar.AtVec(j)-wantVar) > 1e-12 {
			t.Errorf("feature %d var = %v, want %v", j, gotVar.AtVec(j), wantVar)
		}
	}
	if tracker.Count() != n {
		t.Errorf("Count() = %v, want %v", tracker.Count(), n)
	}
}

func TestImportanceTrackerVarianceShrinks(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	tracker := NewImportanceTracker(2)

	feed := func(batches int) {
		for b := 0; b < batches; b++ {
			scores := mat.NewDense(16, 2, nil)
			for i := 0; i < 16; i++ {
				scores.Set(i, 0, rng.NormFloat64())
				scores.Set(i, 1, rng.NormFloat64()*2)
			}
			if err := tracker.Update(scores); err != nil {
				t.Fatalf("Update() error = %v", err)
			}
		}
	}

	feed(2)
	early := tracker.MaxStdErr()
	feed(60)
	late := tracker.MaxStdErr()

	if !(late < early) {
		t.Errorf("confidence did not shrink: early=%v late=%v", early, late)
	}
}

func TestImportanceTrackerEmptyTrackerVarIsInf(t *testing.T) {
	tracker := NewImportanceTracker(3)
	if !math.IsInf(tracker.MaxStdErr(), 1) {
		t.Errorf("MaxStdErr() on empty tracker = %v, want +Inf", tracker.MaxStdErr())
	}
	v := tracker.Var()
	for j := 0; j < 3; j++ {
		if !math.IsInf(v.AtVec(j), 1) {
			t.Errorf("Var()[%d] = %v, want +Inf", j, v.AtVec(j))
		}
	}
}

func TestImportanceTrackerSkipsEmptyBatch(t *testing.T) {
	tracker := NewImportanceTracker(2)
	if err := tracker.Update(mat.NewDense(1, 2, []float64{1, 2})); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	before := tracker.Count()

	// A zero-row batch must not touch the statistics.
	if err := tracker.Update(&mat.Dense{}); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
	if tracker.Count() != before {
		t.Errorf("Count changed on empty batch: %v -> %v", before, tracker.Count())
	}
}

func TestImportanceTrackerDimensionMismatch(t *testing.T) {
	tracker := NewImportanceTracker(3)
	err := tracker.Update(mat.NewDense(2, 2, nil))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
}

func TestImportanceTrackerRejectsNaN(t *testing.T) {
	tracker := NewImportanceTracker(1)
	scores := mat.NewDense(2, 1, []float64{1, math.NaN()})

	err := tracker.Update(scores)
	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if tracker.Count() != 0 {
		t.Error("rejected batch must not change state")
	}
}

func TestImportanceTrackerConcurrentUpdates(t *testing.T) {
	tracker := NewImportanceTracker(2)

	const (
		workers = 8
		batches = 25
		rows    = 10
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for b := 0; b < batches; b++ {
				scores := mat.NewDense(rows, 2, nil)
				for i := 0; i < rows; i++ {
					scores.Set(i, 0, rng.Float64())
					scores.Set(i, 1, rng.Float64())
				}
				if err := tracker.Update(scores); err != nil {
					t.Errorf("Update() error = %v", err)
					return
				}
			}
		}(int64(w))
	}
	wg.Wait()

	want := float64(workers * batches * rows)
	if tracker.Count() != want {
		t.Errorf("Count() = %v, want %v", tracker.Count(), want)
	}
	// Uniform [0,1) samples: the mean must be near 0.5 regardless of the
	// interleaving of the merges.
	if math.Abs(tracker.Scores().AtVec(0)-0.5) > 0.05 {
		t.Errorf("mean = %v, want ~0.5", tracker.Scores().AtVec(0))
	}
}
