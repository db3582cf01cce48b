// Package reporting is the read-only surface consumed by the chart
// collaborators: it samples execution times of ledger projections and
// annotates them with Student-t confidence intervals. Charts never write
// through the ledger core.
package reporting

import (
	"errors"
	"math"
)

var (
	// ErrTooFewSamples is returned when a variance or interval is
	// requested for fewer than two values.
	ErrTooFewSamples = errors.New("need at least two samples")
	// ErrBadLevel is returned when the confidence level is outside (0, 1).
	ErrBadLevel = errors.New("confidence level must be strictly between 0 and 1")
)

// ConfidenceInterval is a two-sided interval for a population mean or a
// mean difference, inclusive at both ends.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	var m float64
	for _, v := range values {
		m += v
	}
	return m / float64(len(values))
}

// Variance returns the sample variance of values around mean.
func Variance(values []float64, mean float64) (float64, error) {
	n := len(values)
	if n < 2 {
		return 0, ErrTooFewSamples
	}
	var v float64
	for _, value := range values {
		v += (value - mean) * (value - mean)
	}
	return v / float64(n-1), nil
}

// ForMean computes a confidence interval for the population mean of
// values, which must have been collected i.i.d.
func ForMean(values []float64, level float64) (ConfidenceInterval, error) {
	if math.Abs(0.5-level) >= 0.5 {
		return ConfidenceInterval{}, ErrBadLevel
	}
	n := len(values)
	mean := Mean(values)
	variance, err := Variance(values, mean)
	if err != nil {
		return ConfidenceInterval{}, err
	}
	delta := tQuantile(level, float64(n-1))
	half := delta * math.Sqrt(variance/float64(n))
	return ConfidenceInterval{Lower: mean - half, Upper: mean + half, Level: level}, nil
}

// ForMeanDifference computes a confidence interval for the difference
// between the population means of two i.i.d. samples, using Welch degrees
// of freedom.
func ForMeanDifference(values1, values2 []float64, level float64) (ConfidenceInterval, error) {
	if math.Abs(0.5-level) >= 0.5 {
		return ConfidenceInterval{}, ErrBadLevel
	}

	n := float64(len(values1))
	mean1 := Mean(values1)
	var1, err := Variance(values1, mean1)
	if err != nil {
		return ConfidenceInterval{}, err
	}

	m := float64(len(values2))
	mean2 := Mean(values2)
	var2, err := Variance(values2, mean2)
	if err != nil {
		return ConfidenceInterval{}, err
	}

	normed1 := var1 / n
	normed2 := var2 / m
	df := math.Pow(normed1+normed2, 2) /
		(math.Pow(normed1, 2)/(n-1) + math.Pow(normed2, 2)/(m-1))

	d := mean1 - mean2
	delta := tQuantile(level, df)
	half := delta * math.Sqrt(normed1+normed2)
	return ConfidenceInterval{Lower: d - half, Upper: d + half, Level: level}, nil
}

// tQuantile returns the p-quantile of the Student-t distribution with df
// degrees of freedom, via the normal quantile plus Hill's asymptotic
// expansion. Accurate to a few 1e-4 for the df values runtime sampling
// produces.
func tQuantile(p, df float64) float64 {
	x := normQuantile(p)
	x2 := x * x
	g1 := x * (x2 + 1) / 4
	g2 := x * (5*x2*x2 + 16*x2 + 3) / 96
	g3 := x * (3*x2*x2*x2 + 19*x2*x2 + 17*x2 - 15) / 384
	g4 := x * (79*x2*x2*x2*x2 + 776*x2*x2*x2 + 1482*x2*x2 - 1920*x2 - 945) / 92160
	return x + g1/df + g2/(df*df) + g3/(df*df*df) + g4/(df*df*df*df)
}

// normQuantile is Acklam's rational approximation of the standard normal
// inverse CDF.
func normQuantile(p float64) float64 {
	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const low = 0.02425
	switch {
	case p < low:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > 1-low:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}
