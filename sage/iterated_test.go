package sage

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sagego/imputation"
	"github.com/YuminosukeSato/sagego/metrics"
)

func TestIteratedEstimatorRecoversSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("monte carlo test")
	}
	captureWarnings(t)

	ds, imp := makeScenario(t, 2000, 61)

	m := 16
	est, err := NewIteratedEstimator(passthroughModel{}, imp, "mse",
		WithNSamples(10000),
		WithBatchSize(500),
		WithMSamples(m),
		WithSeed(67),
	)
	if err != nil {
		t.Fatalf("NewIteratedEstimator() error = %v", err)
	}
	scores, err := est.Estimate(ds)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if scores.Len() != 3 {
		t.Fatalf("scores length = %d, want 3", scores.Len())
	}

	total, err := EstimateTotal(passthroughModel{}, ds, 500, metrics.SquaredError)
	if err != nil {
		t.Fatalf("EstimateTotal() error = %v", err)
	}

	wantScore0 := total * (1 + 1/float64(m))
	if math.Abs(scores.AtVec(0)-wantScore0) > 0.2*total {
		t.Errorf("score[0] = %v, want ~%v", scores.AtVec(0), wantScore0)
	}
	for j := 1; j < 3; j++ {
		if math.Abs(scores.AtVec(j)) > 0.1*total {
			t.Errorf("score[%d] = %v, want ~0", j, scores.AtVec(j))
		}
	}
}

func TestIteratedEstimatorParallelMatchesSequential(t *testing.T) {
	captureWarnings(t)

	ds, _ := symmetricScenario(t, 300, 71)
	run := func(par bool) *mat.VecDense {
		ref, err := imputation.NewReferenceImputer(mat.NewVecDense(3, nil))
		if err != nil {
			t.Fatalf("NewReferenceImputer() error = %v", err)
		}
		est, err := NewIteratedEstimator(sumModel{}, ref, "mse",
			WithNSamples(512),
			WithBatchSize(64),
			WithSeed(73),
			WithParallel(par),
		)
		if err != nil {
			t.Fatalf("NewIteratedEstimator() error = %v", err)
		}
		scores, err := est.Estimate(ds)
		if err != nil {
			t.Fatalf("Estimate() error = %v", err)
		}
		return scores
	}

	seq := run(false)
	par := run(true)
	for j := 0; j < seq.Len(); j++ {
		if seq.AtVec(j) != par.AtVec(j) {
			t.Errorf("parallel and sequential diverge at feature %d: %v vs %v",
				j, par.AtVec(j), seq.AtVec(j))
		}
	}
}

func TestIteratedEstimatorConvergenceStopsEarly(t *testing.T) {
	if testing.Short() {
		t.Skip("monte carlo test")
	}
	captureWarnings(t)

	ds, imp := makeScenario(t, 2000, 79)

	var (
		mu        sync.Mutex
		processed int
	)
	const nSamples = 20000
	est, err := NewIteratedEstimator(passthroughModel{}, imp, "mse",
		WithNSamples(nSamples),
		WithBatchSize(256),
		WithConvergenceDetection(0.3),
		WithSeed(83),
		WithProgress(func(n int) {
			mu.Lock()
			processed += n
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatalf("NewIteratedEstimator() error = %v", err)
	}
	if _, err := est.Estimate(ds); err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	// Every feature runs its own nSamples budget, so a full run draws
	// nSamples·d examples in aggregate.
	full := nSamples * ds.NumFeatures()
	if processed >= full {
		t.Errorf("processed %d draws, expected per-feature early stops before %d", processed, full)
	}
	if processed == 0 {
		t.Error("progress callback never fired")
	}
}

func TestCoalitionMaskDistribution(t *testing.T) {
	const (
		d        = 6
		excluded = 2
		draws    = 6000
	)
	rng := rand.New(rand.NewSource(89))
	s := coalitionMask(rng, draws, d, excluded)

	sizeCounts := make([]int, d)
	inclusion := make([]int, d)
	for i := 0; i < draws; i++ {
		size := 0
		for j := 0; j < d; j++ {
			if s.At(i, j) == 1 {
				size++
				inclusion[j]++
			} else if s.At(i, j) != 0 {
				t.Fatalf("mask entry (%d,%d) = %v, want 0 or 1", i, j, s.At(i, j))
			}
		}
		sizeCounts[size]++
	}

	if inclusion[excluded] != 0 {
		t.Fatalf("excluded feature appeared in %d coalitions", inclusion[excluded])
	}

	// Coalition sizes are uniform over {0, …, d−1}.
	want := float64(draws) / float64(d)
	for k, c := range sizeCounts {
		if math.Abs(float64(c)-want) > 0.2*want {
			t.Errorf("size %d drawn %d times, want ~%v", k, c, want)
		}
	}

	// Each non-excluded feature is included with probability
	// E[k]/(d−1) = 1/2.
	for j := 0; j < d; j++ {
		if j == excluded {
			continue
		}
		freq := float64(inclusion[j]) / float64(draws)
		if math.Abs(freq-0.5) > 0.05 {
			t.Errorf("feature %d inclusion frequency = %v, want ~0.5", j, freq)
		}
	}
}

func TestIteratedEstimatorReproducible(t *testing.T) {
	captureWarnings(t)

	run := func() *mat.VecDense {
		ds, imp := makeScenario(t, 200, 97)
		est, err := NewIteratedEstimator(passthroughModel{}, imp, "mse",
			WithNSamples(256),
			WithBatchSize(64),
			WithSeed(101),
		)
		if err != nil {
			t.Fatalf("NewIteratedEstimator() error = %v", err)
		}
		scores, err := est.Estimate(ds)
		if err != nil {
			t.Fatalf("Estimate() error = %v", err)
		}
		return scores
	}

	a, b := run(), run()
	for j := 0; j < a.Len(); j++ {
		if a.AtVec(j) != b.AtVec(j) {
			t.Errorf("seeded runs differ at feature %d: %v vs %v", j, a.AtVec(j), b.AtVec(j))
		}
	}
}
