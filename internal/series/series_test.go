package series

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("string series", func(t *testing.T) {
		s := New("coil", []string{"Copper", "Aluminium", "Copper"}, mem)
		defer s.Release()

		assert.Equal(t, "coil", s.Name())
		assert.Equal(t, 3, s.Len())
		assert.Equal(t, []string{"Copper", "Aluminium", "Copper"}, s.Values())
		assert.Equal(t, arrow.STRING, s.DataType().ID())
	})

	t.Run("float64 series", func(t *testing.T) {
		s := New("power", []float64{1500, 1200.5}, mem)
		defer s.Release()

		assert.Equal(t, []float64{1500, 1200.5}, s.Values())
		assert.Equal(t, arrow.FLOAT64, s.DataType().ID())
	})

	t.Run("empty series", func(t *testing.T) {
		s := New("empty", []string{}, mem)
		defer s.Release()

		assert.Equal(t, 0, s.Len())
		assert.Empty(t, s.Values())
	})
}

func TestNewNullable(t *testing.T) {
	mem := memory.NewGoAllocator()

	s, err := NewNullable("noise", []float64{45, 0, 50}, []bool{true, false, true}, mem)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, 1, s.NullN())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))
	assert.Equal(t, 0.0, s.Value(1))
	assert.Equal(t, "", s.GetAsString(1))
	assert.Equal(t, "50", s.GetAsString(2))
}

func TestNewNullable_MaskMismatch(t *testing.T) {
	_, err := NewNullable("x", []string{"a", "b"}, []bool{true}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestNewSafe_UnsupportedType(t *testing.T) {
	_, err := NewSafe("c", []complex128{1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestNew_PanicsOnUnsupportedType(t *testing.T) {
	assert.Panics(t, func() {
		New("c", []complex64{1}, nil)
	})
}

func TestGetAsString(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := New("f", []float64{1e6, 0.25}, mem)
	defer f.Release()
	i := New("i", []int64{42}, mem)
	defer i.Release()
	b := New("b", []bool{true}, mem)
	defer b.Release()

	// Plain notation: no exponent for large values.
	assert.Equal(t, "1000000", f.GetAsString(0))
	assert.Equal(t, "0.25", f.GetAsString(1))
	assert.Equal(t, "42", i.GetAsString(0))
	assert.Equal(t, "true", b.GetAsString(0))
	assert.Equal(t, "", i.GetAsString(5))
}

func TestValueOutOfBounds(t *testing.T) {
	s := New("x", []int64{1, 2}, nil)
	defer s.Release()

	assert.Equal(t, int64(0), s.Value(-1))
	assert.Equal(t, int64(0), s.Value(2))
}

func TestSeriesString(t *testing.T) {
	s, err := NewNullable("names", []string{"a", ""}, []bool{true, false}, nil)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, "Series[string]: names (len=2, nulls=1)", s.String())
}
