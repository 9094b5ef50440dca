package density

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func bellState() []complex128 {
	inv := complex(1/math.Sqrt2, 0)
	return []complex128{inv, 0, 0, inv}
}

func TestPartialTraceOfBellStateIsMaximallyMixed(t *testing.T) {
	rho := PartialTrace(bellState(), 2, []int{0})
	require.InDelta(t, 0.5, real(rho.at(0, 0)), 1e-9)
	require.InDelta(t, 0.5, real(rho.at(1, 1)), 1e-9)
	require.InDelta(t, 0, real(rho.at(0, 1)), 1e-9)

	require.InDelta(t, 0.5, Purity(rho), 1e-9)
}

func TestEigenOfMaximallyMixedQubitIsHalfHalf(t *testing.T) {
	rho := PartialTrace(bellState(), 2, []int{0})
	eig := Eigen(rho)
	require.Len(t, eig.Values, 2)
	require.InDelta(t, 0.5, eig.Values[0], 1e-6)
	require.InDelta(t, 0.5, eig.Values[1], 1e-6)

	s, err := VonNeumannEntropy(eig.Values)
	require.NoError(t, err)
	require.InDelta(t, 1, s, 1e-6)
}

func TestPurityOfProductStateQubitIsOne(t *testing.T) {
	inv := complex(1/math.Sqrt2, 0)
	plusPlus := []complex128{inv * inv, inv * inv, inv * inv, inv * inv}
	rho := PartialTrace(plusPlus, 2, []int{0})
	require.InDelta(t, 1, Purity(rho), 1e-9)

	eig := Eigen(rho)
	s, err := VonNeumannEntropy(eig.Values)
	require.NoError(t, err)
	require.InDelta(t, 0, s, 1e-6)
}

func TestFullDensityMatrixOfZeroStateIsProjector(t *testing.T) {
	rho := FullDensityMatrix([]complex128{1, 0})
	require.InDelta(t, 1, real(rho.at(0, 0)), 1e-9)
	require.InDelta(t, 0, real(rho.at(1, 1)), 1e-9)
	require.InDelta(t, 1, Purity(rho), 1e-9)
}
