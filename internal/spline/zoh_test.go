package spline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/optcon/internal/dynamo"
	"github.com/san-kum/optcon/internal/spline"
	"github.com/san-kum/optcon/internal/timegrid"
	"gonum.org/v1/gonum/mat"
)

var _ = Describe("ZeroOrderHold", func() {
	var (
		grid *timegrid.TimeGrid
		zoh  *spline.ZeroOrderHold
		v0   = dynamo.State{1, -1, 0.5}
		v1   = dynamo.State{2, 3, -4}
		v2   = dynamo.State{0, 0, 7}
	)

	BeforeEach(func() {
		var err error
		grid, err = timegrid.New([]float64{0, 1, 2, 4})
		Expect(err).NotTo(HaveOccurred())
		zoh, err = spline.NewZeroOrderHold(grid, 3)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a non-positive dimension and a missing grid", func() {
		_, err := spline.NewZeroOrderHold(grid, 0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		_, err = spline.NewZeroOrderHold(nil, 3)
		Expect(err).To(MatchError(dynamo.ErrInvalidGrid))
	})

	Context("before ComputeSpline", func() {
		It("rejects evaluation", func() {
			_, err := zoh.EvalSpline(0.5, 0)
			Expect(err).To(MatchError(dynamo.ErrSplineNotComputed))
		})
	})

	Context("after ComputeSpline", func() {
		BeforeEach(func() {
			Expect(zoh.ComputeSpline([]dynamo.State{v0, v1, v2})).To(Succeed())
		})

		It("returns the node value of the shot regardless of time", func() {
			// inside, on both boundaries and outside of shot 1's span [1, 2)
			for _, t := range []float64{1, 1.5, 1.999, 2, -3, 0.25, 100} {
				v, err := zoh.EvalSpline(t, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(v).To(Equal(v1), "t=%g", t)
			}
		})

		It("holds every shot at its own node", func() {
			for shot, want := range []dynamo.State{v0, v1, v2} {
				start, _ := grid.ShotStart(shot)
				end, _ := grid.ShotEnd(shot)
				for _, t := range []float64{start, (start + end) / 2, end} {
					v, err := zoh.EvalSpline(t, shot)
					Expect(err).NotTo(HaveOccurred())
					Expect(v).To(Equal(want))
				}
			}
		})

		It("rejects shot indices outside the spline", func() {
			for _, shot := range []int{-1, 3, 42} {
				_, err := zoh.EvalSpline(0, shot)
				Expect(err).To(MatchError(dynamo.ErrShotOutOfRange))
			}
		})

		It("does not alias caller or result memory", func() {
			input := dynamo.State{9, 9, 9}
			Expect(zoh.ComputeSpline([]dynamo.State{v0, input, v2})).To(Succeed())
			input[0] = -1

			v, err := zoh.EvalSpline(1.5, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(dynamo.State{9, 9, 9}))

			v[1] = 123
			again, _ := zoh.EvalSpline(1.5, 1)
			Expect(again).To(Equal(dynamo.State{9, 9, 9}))
		})

		It("acts as the identity with respect to q_i", func() {
			delta := mat.NewVecDense(3, []float64{0.1, -0.2, 0.3})
			for shot, base := range []dynamo.State{v0, v1, v2} {
				dq := zoh.SplineDerivativeQi(0.5, shot)
				var step mat.VecDense
				step.MulVec(dq, delta)

				predicted := base.Add(dynamo.State(step.RawVector().Data))

				perturbed := []dynamo.State{v0.Clone(), v1.Clone(), v2.Clone()}
				perturbed[shot] = perturbed[shot].Add(dynamo.State(delta.RawVector().Data))
				moved, err := spline.NewZeroOrderHold(grid, 3)
				Expect(err).NotTo(HaveOccurred())
				Expect(moved.ComputeSpline(perturbed)).To(Succeed())
				actual, err := moved.EvalSpline(0.5, shot)
				Expect(err).NotTo(HaveOccurred())

				Expect(predicted).To(Equal(actual))
			}
		})

		It("has exactly zero derivatives with respect to t, h_i and q_{i+1}", func() {
			zero := dynamo.State{0, 0, 0}
			for shot := -1; shot <= 4; shot++ {
				for _, t := range []float64{-1, 0, 0.5, 2, 10} {
					Expect(zoh.SplineDerivativeT(t, shot)).To(Equal(zero))
					Expect(zoh.SplineDerivativeHi(t, shot)).To(Equal(zero))
					Expect(mat.Equal(zoh.SplineDerivativeQiPlus1(t, shot), mat.NewDense(3, 3, nil))).To(BeTrue())
				}
			}
		})
	})

	It("rejects a point count that does not match the grid", func() {
		err := zoh.ComputeSpline([]dynamo.State{v0, v1})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("rejects points of the wrong dimension", func() {
		err := zoh.ComputeSpline([]dynamo.State{v0, {1, 2}, v2})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("shares the grid instead of copying it", func() {
		Expect(zoh.Grid()).To(BeIdenticalTo(grid))
		Expect(grid.SetFinalTime(8)).To(Succeed())
		Expect(zoh.Grid().FinalTime()).To(Equal(8.0))
	})
})

var _ = Describe("New", func() {
	It("builds a zero order hold spline", func() {
		grid, _ := timegrid.NewUniform(2, 1)
		s, err := spline.New(spline.ZeroOrderHoldKind, grid, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeAssignableToTypeOf(&spline.ZeroOrderHold{}))
		Expect(s.Dim()).To(Equal(2))
	})

	It("rejects unknown kinds and empty dimensions", func() {
		grid, _ := timegrid.NewUniform(2, 1)
		_, err := spline.New("cubic", grid, 2)
		Expect(err).To(MatchError(spline.ErrUnknownKind))
		_, err = spline.New(spline.ZeroOrderHoldKind, grid, 0)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})
