package derivatives

import (
	"math"
	"slices"

	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	cbrtEps  = math.Cbrt(machineEps)
	quartEps = math.Sqrt(sqrtEps)
)

type scalarFunc func(x []float64) (float64, error)

type shift struct {
	idx int
	d   float64
}

// weighted returns φ(x) = wᵀf(x).
func weighted(f Function, w []float64) scalarFunc {
	return func(x []float64) (float64, error) {
		y, err := f(x)
		if err != nil {
			return 0, err
		}
		if len(y) != len(w) {
			return 0, dynamo.DimensionError("f(x)", len(y), len(w))
		}
		return floats.Dot(w, y), nil
	}
}

// numericHessian estimates the Hessian of phi at x.
//
// Forward mode uses
//
//	H_ij ≈ [φ(x+h_i+h_j) - φ(x+h_i) - φ(x+h_j) + φ(x)] / (h_i h_j)
//
// with h = cbrt(eps)·max(|x_i|,1). Central mode uses
//
//	H_ij ≈ [φ(x+h_i+h_j) - φ(x+h_i-h_j) - φ(x-h_i+h_j) + φ(x-h_i-h_j)] / (4 h_i h_j)
//	H_ii ≈ [φ(x+h_i) - 2φ(x) + φ(x-h_i)] / h_i²
//
// with h = eps^(1/4)·max(|x_i|,1). Steps are the ones realized in floating
// point. The result is symmetric.
func numericHessian(phi scalarFunc, x []float64, central bool) (*mat.Dense, error) {
	n := len(x)
	rel := cbrtEps
	if central {
		rel = quartEps
	}

	h := make([]float64, n)
	for i, xi := range x {
		hi := rel * math.Max(math.Abs(xi), 1.0)
		h[i] = float64(xi+hi) - xi
	}

	at := func(shifts ...shift) (float64, error) {
		xp := slices.Clone(x)
		for _, s := range shifts {
			xp[s.idx] += s.d
		}
		return phi(xp)
	}

	f0, err := phi(x)
	if err != nil {
		return nil, err
	}

	hes := mat.NewSymDense(n, nil)

	if central {
		for i := 0; i < n; i++ {
			fp, err := at(shift{i, h[i]})
			if err != nil {
				return nil, err
			}
			fm, err := at(shift{i, -h[i]})
			if err != nil {
				return nil, err
			}
			hes.SetSym(i, i, (fp-2*f0+fm)/(h[i]*h[i]))

			for j := i + 1; j < n; j++ {
				fpp, err := at(shift{i, h[i]}, shift{j, h[j]})
				if err != nil {
					return nil, err
				}
				fpm, err := at(shift{i, h[i]}, shift{j, -h[j]})
				if err != nil {
					return nil, err
				}
				fmp, err := at(shift{i, -h[i]}, shift{j, h[j]})
				if err != nil {
					return nil, err
				}
				fmm, err := at(shift{i, -h[i]}, shift{j, -h[j]})
				if err != nil {
					return nil, err
				}
				hes.SetSym(i, j, (fpp-fpm-fmp+fmm)/(4*h[i]*h[j]))
			}
		}
		return mat.DenseCopyOf(hes), nil
	}

	single := make([]float64, n)
	for i := 0; i < n; i++ {
		if single[i], err = at(shift{i, h[i]}); err != nil {
			return nil, err
		}
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			fij, err := at(shift{i, h[i]}, shift{j, h[j]})
			if err != nil {
				return nil, err
			}
			hes.SetSym(i, j, (fij-single[i]-single[j]+f0)/(h[i]*h[j]))
		}
	}
	return mat.DenseCopyOf(hes), nil
}
