package derivatives_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/optcon/internal/derivatives"
	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// rotor maps (r, θ) to cartesian coordinates.
func rotor(x []float64) ([]float64, error) {
	return []float64{x[0] * math.Cos(x[1]), x[0] * math.Sin(x[1])}, nil
}

func rotorJacobian(x []float64) (*mat.Dense, error) {
	c, s := math.Cos(x[1]), math.Sin(x[1])
	return mat.NewDense(2, 2, []float64{
		c, -x[0] * s,
		s, x[0] * c,
	}), nil
}

var _ = Describe("Derivatives contract", func() {
	providers := map[string]func() derivatives.Derivatives{
		"forward numdiff": func() derivatives.Derivatives {
			return derivatives.NewNumDiff(rotor, 2, 2, false)
		},
		"central numdiff": func() derivatives.Derivatives {
			return derivatives.NewNumDiff(rotor, 2, 2, true)
		},
		"dynamic numdiff": func() derivatives.Derivatives {
			return derivatives.NewNumDiff(rotor, derivatives.Dynamic, derivatives.Dynamic, true)
		},
		"functional": func() derivatives.Derivatives {
			return derivatives.NewFunctional(rotor, rotorJacobian, nil, 2, 2)
		},
	}

	for name, build := range providers {
		Context(name, func() {
			var d derivatives.Derivatives
			x := []float64{1.3, 0.4}

			BeforeEach(func() {
				d = build()
			})

			It("passes ForwardZero through to the function", func() {
				y, err := d.ForwardZero(x)
				Expect(err).NotTo(HaveOccurred())
				want, _ := rotor(x)
				Expect(y).To(Equal(want))
			})

			It("returns an OutDim x InDim jacobian close to the analytic one", func() {
				jac, err := d.Jacobian(x)
				Expect(err).NotTo(HaveOccurred())
				r, c := jac.Dims()
				Expect(r).To(Equal(2))
				Expect(c).To(Equal(2))

				want, _ := rotorJacobian(x)
				Expect(mat.EqualApprox(jac, want, 1e-6)).To(BeTrue())
			})

			It("returns a symmetric weighted hessian", func() {
				hes, err := d.Hessian(x, []float64{1, 1})
				Expect(err).NotTo(HaveOccurred())
				Expect(hes.At(0, 1)).To(Equal(hes.At(1, 0)))
				// ∂²(r cos θ + r sin θ)/∂r² = 0
				Expect(hes.At(0, 0)).To(BeNumerically("~", 0, 1e-3))
			})

			It("clones into an independent provider with identical results", func() {
				clone := d.Clone()
				Expect(clone).NotTo(BeIdenticalTo(d))

				j1, err := d.Jacobian(x)
				Expect(err).NotTo(HaveOccurred())
				j2, err := clone.Jacobian(x)
				Expect(err).NotTo(HaveOccurred())
				Expect(mat.Equal(j1, j2)).To(BeTrue())
			})

			It("rejects inputs of the wrong length", func() {
				_, err := d.Jacobian([]float64{})
				Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
			})
		})
	}
})
