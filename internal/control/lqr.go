package control

import (
	"errors"
	"fmt"

	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// ErrRiccatiNoConvergence is returned when the Riccati iteration stalls.
var ErrRiccatiNoConvergence = errors.New("control: riccati iteration did not converge")

const (
	riccatiMaxIter = 100000
	riccatiTol     = 1e-10
)

// LQR applies u = uRef - K (x - xRef).
type LQR struct {
	K      *mat.Dense
	Target dynamo.State
	Ref    dynamo.Control
}

func NewLQR(k *mat.Dense, target dynamo.State, ref dynamo.Control) *LQR {
	return &LQR{K: k, Target: target, Ref: ref}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	rows, _ := l.K.Dims()
	dx := mat.NewVecDense(len(x), x.Sub(l.Target))

	var kdx mat.VecDense
	kdx.MulVec(l.K, dx)

	u := make(dynamo.Control, rows)
	for i := range u {
		if i < len(l.Ref) {
			u[i] = l.Ref[i]
		}
		u[i] -= kdx.AtVec(i)
	}
	return u
}

// DesignLQR linearizes sys around (xRef, uRef), discretizes with step dt
// (Ad = I + A dt, Bd = B dt) and solves the discrete algebraic Riccati
// equation by fixed point iteration.
func DesignLQR(sys dynamo.System, xRef dynamo.State, uRef dynamo.Control, dt float64, q, r *mat.Dense, doubleSided bool) (*LQR, error) {
	a, b, err := Linearize(sys, xRef, uRef, 0, doubleSided)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: system has no controls", dynamo.ErrDimensionMismatch)
	}

	nx, nu := sys.StateDim(), sys.ControlDim()
	if qr, qc := q.Dims(); qr != nx || qc != nx {
		return nil, dynamo.DimensionError("Q order", qr, nx)
	}
	if rr, rc := r.Dims(); rr != nu || rc != nu {
		return nil, dynamo.DimensionError("R order", rr, nu)
	}

	var ad, bd mat.Dense
	ad.Scale(dt, a)
	for i := 0; i < nx; i++ {
		ad.Set(i, i, ad.At(i, i)+1)
	}
	bd.Scale(dt, b)

	k, err := SolveDARE(&ad, &bd, q, r)
	if err != nil {
		return nil, err
	}
	return NewLQR(k, xRef.Clone(), uRef.Clone()), nil
}

// SolveDARE iterates
//
//	K = (R + BᵀPB)⁻¹ BᵀPA
//	P = Q + Aᵀ P (A - BK)
//
// until P settles and returns the gain K.
func SolveDARE(a, b, q, r mat.Matrix) (*mat.Dense, error) {
	p := mat.DenseCopyOf(q)

	var (
		bp, s, bpa, bk, abk, pabk, next, diff mat.Dense
		k                                     mat.Dense
	)
	for iter := 0; iter < riccatiMaxIter; iter++ {
		bp.Mul(b.T(), p)
		s.Mul(&bp, b)
		s.Add(&s, r)
		bpa.Mul(&bp, a)
		if err := k.Solve(&s, &bpa); err != nil {
			return nil, fmt.Errorf("control: riccati gain: %w", err)
		}

		bk.Mul(b, &k)
		abk.Sub(a, &bk)
		pabk.Mul(p, &abk)
		next.Mul(a.T(), &pabk)
		next.Add(&next, q)

		diff.Sub(&next, p)
		converged := mat.Norm(&diff, 1) <= riccatiTol*(1+mat.Norm(&next, 1))
		p.Copy(&next)
		if converged {
			return mat.DenseCopyOf(&k), nil
		}
	}
	return nil, ErrRiccatiNoConvergence
}
