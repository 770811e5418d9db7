package physics

import (
	"github.com/san-kum/optcon/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultStiffness = 10.0
	DefaultDamping   = 0.5
)

// SpringMass is a chain of n masses with state [p_1..p_n, v_1..v_n]. The
// first mass is tied to a wall and the last one optionally as well; the
// control force acts on the first mass. The dynamics are linear.
type SpringMass struct {
	Masses    []float64
	Stiffness []float64 // n springs, or n+1 when the last mass is tied to a wall
	Damping   []float64
}

func NewSpringMass() *SpringMass {
	return &SpringMass{
		Masses:    []float64{DefaultMass},
		Stiffness: []float64{DefaultStiffness},
		Damping:   []float64{DefaultDamping},
	}
}

func NewSpringMassChain(n int) *SpringMass {
	s := &SpringMass{
		Masses:    make([]float64, n),
		Stiffness: make([]float64, n+1),
		Damping:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Masses[i] = DefaultMass
		s.Stiffness[i] = DefaultStiffness
		s.Damping[i] = 0.2
	}
	s.Stiffness[n] = DefaultStiffness
	return s
}

func (s *SpringMass) n() int          { return len(s.Masses) }
func (s *SpringMass) StateDim() int   { return 2 * s.n() }
func (s *SpringMass) ControlDim() int { return 1 }

func (s *SpringMass) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	a, b := s.matrices()
	dx := mat.NewVecDense(s.StateDim(), nil)
	dx.MulVec(a, mat.NewVecDense(len(x), x))
	if len(u) > 0 {
		dx.AddScaledVec(dx, u[0], b.ColView(0))
	}
	return dynamo.State(dx.RawVector().Data)
}

func (s *SpringMass) Linearize(x dynamo.State, u dynamo.Control, t float64) (*mat.Dense, *mat.Dense) {
	return s.matrices()
}

// matrices assembles the constant system matrices of ẋ = Ax + Bu.
func (s *SpringMass) matrices() (*mat.Dense, *mat.Dense) {
	n := s.n()
	a := mat.NewDense(2*n, 2*n, nil)
	b := mat.NewDense(2*n, 1, nil)

	for i := 0; i < n; i++ {
		a.Set(i, n+i, 1)

		m := s.Masses[i]
		// spring to the left neighbour or the wall
		k := s.Stiffness[i]
		a.Set(n+i, i, a.At(n+i, i)-k/m)
		if i > 0 {
			a.Set(n+i, i-1, a.At(n+i, i-1)+k/m)
		}
		// spring to the right neighbour or the far wall
		if i < n-1 {
			k = s.Stiffness[i+1]
			a.Set(n+i, i, a.At(n+i, i)-k/m)
			a.Set(n+i, i+1, a.At(n+i, i+1)+k/m)
		} else if len(s.Stiffness) > n {
			a.Set(n+i, i, a.At(n+i, i)-s.Stiffness[n]/m)
		}
		a.Set(n+i, n+i, -s.Damping[i]/m)
	}
	b.Set(n, 0, 1/s.Masses[0])

	return a, b
}

func (s *SpringMass) Energy(x dynamo.State) float64 {
	n := s.n()
	energy := 0.0
	for i := 0; i < n; i++ {
		v := x[n+i]
		energy += 0.5 * s.Masses[i] * v * v

		stretch := x[i]
		if i > 0 {
			stretch -= x[i-1]
		}
		energy += 0.5 * s.Stiffness[i] * stretch * stretch
	}
	if len(s.Stiffness) > n {
		energy += 0.5 * s.Stiffness[n] * x[n-1] * x[n-1]
	}
	return energy
}
