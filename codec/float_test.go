package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFloat32_ConstantRun(t *testing.T) {
	values := make([]float32, 20)
	for i := range values {
		values[i] = 3.25
	}

	encoded, err := EncodeFloat32(values)
	require.NoError(t, err)
	require.Equal(t, byte(0), encoded[0])
	require.Less(t, len(encoded), len(values)*4+1)

	decoded, err := DecodeFloat32(encoded, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncodeDecodeFloat32_VaryingValues(t *testing.T) {
	values := []float32{1.5, 1.5, 2.25, -7.0, 100.125, 0, -0.0001, 42}

	encoded, err := EncodeFloat32(values)
	require.NoError(t, err)

	decoded, err := DecodeFloat32(encoded, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncodeDecodeFloat32_OddCount(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5}

	encoded, err := EncodeFloat32(values)
	require.NoError(t, err)

	decoded, err := DecodeFloat32(encoded, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncodeFloat32_Empty(t *testing.T) {
	encoded, err := EncodeFloat32(nil)
	require.NoError(t, err)

	decoded, err := DecodeFloat32(encoded, 0)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeFloat32_RejectsBadModeByte(t *testing.T) {
	_, err := DecodeFloat32([]byte{9}, 1)
	require.Error(t, err)
}
