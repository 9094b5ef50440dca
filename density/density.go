// Package density builds reduced density matrices from a full
// amplitude vector and eigendecomposes them. Hermitian matrices are
// embedded as real symmetric ones twice their size so every
// eigenproblem goes through gonum's EigenSym.
package density

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense Hermitian matrix, stored row-major.
type Matrix struct {
	N    int
	Data []complex128
}

func newMatrix(n int) Matrix {
	return Matrix{N: n, Data: make([]complex128, n*n)}
}

func (m Matrix) at(r, c int) complex128 { return m.Data[r*m.N+c] }

func (m Matrix) set(r, c int, v complex128) { m.Data[r*m.N+c] = v }

// FullDensityMatrix builds |psi><psi| for a pure state.
func FullDensityMatrix(amps []complex128) Matrix {
	n := len(amps)
	rho := newMatrix(n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			rho.set(r, c, amps[r]*cmplx.Conj(amps[c]))
		}
	}
	return rho
}

// PartialTrace traces out every qubit not in keep from a pure state.
// keep[0] is the least significant bit of the reduced index.
func PartialTrace(amps []complex128, numQubits int, keep []int) Matrix {
	k := len(keep)
	dimKeep := 1 << k
	rho := newMatrix(dimKeep)

	traced := make([]int, 0, numQubits-k)
	keepSet := map[int]bool{}
	for _, q := range keep {
		keepSet[q] = true
	}
	for q := 0; q < numQubits; q++ {
		if !keepSet[q] {
			traced = append(traced, q)
		}
	}
	dimTraced := 1 << len(traced)

	buildFull := func(keptBits, tracedBits int) int {
		full := 0
		for i, q := range keep {
			if keptBits&(1<<i) != 0 {
				full |= 1 << q
			}
		}
		for i, q := range traced {
			if tracedBits&(1<<i) != 0 {
				full |= 1 << q
			}
		}
		return full
	}

	for r := 0; r < dimKeep; r++ {
		for c := 0; c < dimKeep; c++ {
			var sum complex128
			for t := 0; t < dimTraced; t++ {
				ir := buildFull(r, t)
				ic := buildFull(c, t)
				sum += amps[ir] * cmplx.Conj(amps[ic])
			}
			rho.set(r, c, sum)
		}
	}
	return rho
}

// Purity returns Tr(rho^2), 1 iff pure.
func Purity(rho Matrix) float64 {
	var sum complex128
	for r := 0; r < rho.N; r++ {
		for c := 0; c < rho.N; c++ {
			sum += rho.at(r, c) * rho.at(c, r)
		}
	}
	return real(sum)
}

// EigenDecomposition holds real eigenvalues and their complex
// eigenvectors, ascending by eigenvalue.
type EigenDecomposition struct {
	Values  []float64
	Vectors [][]complex128
}

// Eigen decomposes a Hermitian Matrix via the real embedding: rho =
// A+iB becomes the 2n x 2n symmetric block matrix [[A,-B],[B,A]],
// which carries rho's spectrum with doubled multiplicity. A block
// eigenvector's top and bottom halves recombine into a complex
// eigenvector.
func Eigen(rho Matrix) EigenDecomposition {
	n := rho.N
	embedded := mat.NewSymDense(2*n, nil)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := rho.at(r, c)
			embedded.SetSym(r, c, real(v))
			embedded.SetSym(n+r, n+c, real(v))
			embedded.SetSym(r, n+c, -imag(v))
		}
	}

	var eig mat.EigenSym
	eig.Factorize(embedded, true)

	allValues := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// The embedding doubles every multiplicity; with allValues sorted
	// ascending, rho's spectrum is every second entry.
	out := EigenDecomposition{}
	for i := 0; i < 2*n; i += 2 {
		vec := make([]complex128, n)
		for r := 0; r < n; r++ {
			vec[r] = complex(vectors.At(r, i), vectors.At(n+r, i))
		}
		out.Values = append(out.Values, allValues[i])
		out.Vectors = append(out.Vectors, vec)
	}
	return out
}

// VonNeumannEntropy computes -sum(l * log2(l)) over the spectrum.
// Tiny negative eigenvalues are clamped to 0; ones below -1e-5 fail.
func VonNeumannEntropy(eigenvalues []float64) (float64, error) {
	var s float64
	for _, lambda := range eigenvalues {
		if lambda < -1e-5 {
			return 0, errNegativeEigenvalue(lambda)
		}
		if lambda < 0 {
			lambda = 0
		}
		if lambda <= 1e-12 {
			continue
		}
		s -= lambda * math.Log2(lambda)
	}
	return s, nil
}

type negativeEigenvalueError struct{ value float64 }

func (e negativeEigenvalueError) Error() string {
	return "density matrix has a non-negligible negative eigenvalue"
}

func errNegativeEigenvalue(v float64) error { return negativeEigenvalueError{value: v} }
