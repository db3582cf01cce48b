package reporting

import (
	"context"
	"time"
)

// Op is a read-only projection call whose runtime is being sampled.
type Op func(ctx context.Context) error

// SampleRuntimes runs op n times and returns the observed execution times
// in milliseconds. The first error aborts sampling.
func SampleRuntimes(ctx context.Context, op Op, n int) ([]float64, error) {
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := op(ctx); err != nil {
			return nil, err
		}
		samples = append(samples, float64(time.Since(start).Microseconds())/1000)
	}
	return samples, nil
}

// RuntimeComparison is the chart-ready dataset for the two-query runtime
// bar chart: one interval per operation plus one for the mean difference.
type RuntimeComparison struct {
	First      ConfidenceInterval `json:"first"`
	Second     ConfidenceInterval `json:"second"`
	Difference ConfidenceInterval `json:"difference"`
}

// CompareRuntimes samples both operations n times each and annotates the
// distributions with confidence intervals at the given level.
func CompareRuntimes(ctx context.Context, first, second Op, n int, level float64) (RuntimeComparison, error) {
	s1, err := SampleRuntimes(ctx, first, n)
	if err != nil {
		return RuntimeComparison{}, err
	}
	s2, err := SampleRuntimes(ctx, second, n)
	if err != nil {
		return RuntimeComparison{}, err
	}

	ci1, err := ForMean(s1, level)
	if err != nil {
		return RuntimeComparison{}, err
	}
	ci2, err := ForMean(s2, level)
	if err != nil {
		return RuntimeComparison{}, err
	}
	diff, err := ForMeanDifference(s1, s2, level)
	if err != nil {
		return RuntimeComparison{}, err
	}
	return RuntimeComparison{First: ci1, Second: ci2, Difference: diff}, nil
}
