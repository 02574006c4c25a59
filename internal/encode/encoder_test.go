package encode_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func trainingFrame(mem memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("Condenser_Coil", []string{"Copper", "Aluminium", "Copper", "Alloy"}, mem),
		series.New("Refrigerant", []string{"R-32", "R-32", "R410a", "Other"}, mem),
		series.New("Power_Consumption", []float64{1000, 1200, 1400, 1600}, mem),
		series.New("Price", []float64{30000, 32000, 35000, 40000}, mem),
	)
}

var acSpec = encode.Spec{
	Categorical: []string{"Condenser_Coil", "Refrigerant"},
	Numerical:   []string{"Power_Consumption"},
	Scale:       true,
	Target:      "Price",
}

func TestFit(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()

	enc, X, y, err := encode.Fit(df, acSpec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Condenser_Coil=Copper", "Condenser_Coil=Aluminium", "Condenser_Coil=Alloy",
		"Refrigerant=R-32", "Refrigerant=R410a", "Refrigerant=Other",
		"Power_Consumption",
	}, enc.FeatureNames())
	assert.Equal(t, 7, enc.Width())
	assert.Equal(t, []string{"Copper", "Aluminium", "Alloy"}, enc.Levels("Condenser_Coil"))
	assert.Nil(t, enc.Levels("unknown"))
	assert.Equal(t, []float64{30000, 32000, 35000, 40000}, y)

	r, c := X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 7, c)

	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, mat.Row(nil, 0, X)[:6])
	assert.Equal(t, []float64{0, 0, 1, 0, 0, 1}, mat.Row(nil, 3, X)[:6])

	// population mean 1300, std sqrt(50000)
	scaled := mat.Col(nil, 6, X)
	assert.InDelta(t, -300/223.60679775, scaled[0], 1e-6)
	assert.InDelta(t, 0, scaled[0]+scaled[3], 1e-9)
}

func TestTransformLayoutInvariance(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()

	enc, _, _, err := encode.Fit(df, acSpec)
	require.NoError(t, err)

	seen := dataframe.New(
		series.New("Condenser_Coil", []string{"Aluminium"}, mem),
		series.New("Refrigerant", []string{"R410a"}, mem),
		series.New("Power_Consumption", []float64{1300}, mem),
	)
	defer seen.Release()
	unseen := dataframe.New(
		series.New("Power_Consumption", []float64{1300}, mem),
		series.New("Refrigerant", []string{"R22"}, mem),
		series.New("Condenser_Coil", []string{"Gold"}, mem),
	)
	defer unseen.Release()

	a, err := enc.Transform(seen)
	require.NoError(t, err)
	b, err := enc.Transform(unseen)
	require.NoError(t, err)

	_, ca := a.Dims()
	_, cb := b.Dims()
	assert.Equal(t, enc.Width(), ca)
	assert.Equal(t, ca, cb)

	assert.Equal(t, []float64{0, 1, 0, 0, 1, 0, 0}, mat.Row(nil, 0, a))
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0}, mat.Row(nil, 0, b), "unseen levels encode as zero blocks")
}

func TestTransformMissingCategory(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()
	enc, _, _, err := encode.Fit(df, acSpec)
	require.NoError(t, err)

	coil, err := series.NewNullable("Condenser_Coil", []string{""}, []bool{false}, mem)
	require.NoError(t, err)
	row := dataframe.New(
		coil,
		series.New("Refrigerant", []string{"R-32"}, mem),
		series.New("Power_Consumption", []float64{1300}, mem),
	)
	defer row.Release()

	X, err := enc.Transform(row)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0}, mat.Row(nil, 0, X))
}

func TestFingerprint(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()

	a, _, _, err := encode.Fit(df, acSpec)
	require.NoError(t, err)
	b, _, _, err := encode.Fit(df, acSpec)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	other := acSpec
	other.Categorical = []string{"Refrigerant", "Condenser_Coil"}
	c, _, _, err := encode.Fit(df, other)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestFitErrors(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()

	t.Run("empty spec", func(t *testing.T) {
		_, _, _, err := encode.Fit(df, encode.Spec{})
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("missing column", func(t *testing.T) {
		_, _, _, err := encode.Fit(df, encode.Spec{Categorical: []string{"Brand"}})
		assert.ErrorIs(t, err, errors.ErrSchema)
	})

	t.Run("empty table", func(t *testing.T) {
		_, _, _, err := encode.Fit(dataframe.New(), acSpec)
		assert.ErrorIs(t, err, errors.ErrInsufficientData)
	})

	t.Run("non-numeric feature", func(t *testing.T) {
		bad := dataframe.New(series.New("Power_Consumption", []string{"lots"}, mem))
		defer bad.Release()
		_, _, _, err := encode.Fit(bad, encode.Spec{Numerical: []string{"Power_Consumption"}, Scale: true})
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestFitWithoutScaling(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := trainingFrame(mem)
	defer df.Release()

	spec := encode.Spec{Numerical: []string{"Power_Consumption"}}
	_, X, y, err := encode.Fit(df, spec)
	require.NoError(t, err)
	assert.Nil(t, y)
	assert.Equal(t, []float64{1000, 1200, 1400, 1600}, mat.Col(nil, 0, X))
}
