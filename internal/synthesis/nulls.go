package synthesis

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/apertura-data/beamlab/internal/excitation"
	"github.com/apertura-data/beamlab/internal/geometry"
	"github.com/apertura-data/beamlab/internal/units"
)

// placeNulls solves for excitations that zero the array factor at each null
// angle while holding unity gain toward the main beam. Each null is one
// complex linear constraint on the weight vector; with fewer constraints
// than elements the system is solved least-norm, with exactly N it is
// solved exactly.
func placeNulls(geom *geometry.Model, o NullPlacement, freqHz float64) (*excitation.State, error) {
	n := geom.N()
	m := len(o.NullsDeg) + 1 // null rows plus the main-beam anchor
	if len(o.NullsDeg) >= n {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonOverConstrained,
			Detail: fmt.Sprintf("%d nulls on a %d-element array: no exact solution exists (need fewer than %d)",
				len(o.NullsDeg), n, n),
		}
	}

	k := units.Wavenumber(freqHz)

	// Complex constraint row for one look angle: exp(j k x_n sin(theta)).
	row := func(thetaDeg float64) []complex128 {
		sinTheta := math.Sin(units.DegToRad(thetaDeg))
		r := make([]complex128, n)
		for i := 0; i < n; i++ {
			r[i] = cmplx.Exp(complex(0, k*geom.Position(i)*sinTheta))
		}
		return r
	}

	// Real-embedded system: [Re -Im; Im Re] * [Re w; Im w] = [Re b; Im b].
	a := mat.NewDense(2*m, 2*n, nil)
	b := mat.NewVecDense(2*m, nil)
	fill := func(ri int, cr []complex128, rhs complex128) {
		for ci, c := range cr {
			a.Set(ri, ci, real(c))
			a.Set(ri, n+ci, -imag(c))
			a.Set(m+ri, ci, imag(c))
			a.Set(m+ri, n+ci, real(c))
		}
		b.SetVec(ri, real(rhs))
		b.SetVec(m+ri, imag(rhs))
	}
	fill(0, row(o.MainBeamDeg), 1)
	for i, null := range o.NullsDeg {
		fill(i+1, row(null), 0)
	}

	x, err := minNormSolve(a, b)
	if err != nil {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonSingularSystem,
			Detail:    err.Error(),
		}
	}

	// Verify the solve actually satisfied the constraints; an inconsistent
	// system (e.g. a null on the main beam) solves only in the least-squares
	// sense and must be rejected.
	var resid mat.VecDense
	resid.MulVec(a, x)
	resid.SubVec(&resid, b)
	if mat.Norm(&resid, 2) > 1e-8 {
		return nil, &Error{
			Objective: o.String(),
			Reason:    ReasonSingularSystem,
			Detail:    fmt.Sprintf("constraints are inconsistent (residual %.3g)", mat.Norm(&resid, 2)),
		}
	}

	drives := make(map[string]excitation.Drive, n)
	for i, elem := range geom.Elements {
		w := complex(x.AtVec(i), x.AtVec(n+i))
		drives[elem.ID] = excitation.Drive{
			Amplitude: cmplx.Abs(w),
			Phase:     cmplx.Phase(w),
		}
	}
	state, err := excitation.New(drives)
	if err != nil {
		return nil, err
	}
	return state.NormalizedPeak(), nil
}

// minNormSolve returns the minimum-norm least-squares solution of a*x = b
// via the thin SVD pseudoinverse.
func minNormSolve(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return nil, fmt.Errorf("constraint matrix is zero")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// x = V * diag(1/s) * U^T * b, dropping singular values below the
	// numerical rank cutoff.
	cutoff := values[0] * 1e-12
	_, cols := a.Dims()
	ub := make([]float64, len(values))
	for i := range values {
		if values[i] <= cutoff {
			continue
		}
		var dot float64
		for r := 0; r < b.Len(); r++ {
			dot += u.At(r, i) * b.AtVec(r)
		}
		ub[i] = dot / values[i]
	}
	x := mat.NewVecDense(cols, nil)
	for c := 0; c < cols; c++ {
		var sum float64
		for i := range values {
			sum += v.At(c, i) * ub[i]
		}
		x.SetVec(c, sum)
	}
	return x, nil
}
