// Package testutil provides shared fixtures for package tests: a memory
// context and synthetic appliance catalogues written to temporary files.
package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const (
	defaultRowCount = 60
	defaultSeed     = 7
	// every nullEvery-th row gets blank feature cells when nulls are enabled
	nullEvery = 9
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator for tests.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewGoAllocator(),
		cleanup:   func() {},
	}
}

// DatasetOption configures synthetic dataset generation.
type DatasetOption func(*datasetConfig)

type datasetConfig struct {
	rows   int
	seed   uint64
	nulls  bool
	latin1 bool
}

// WithRows sets the number of generated rows.
func WithRows(n int) DatasetOption {
	return func(cfg *datasetConfig) { cfg.rows = n }
}

// WithSeed sets the generator seed.
func WithSeed(seed uint64) DatasetOption {
	return func(cfg *datasetConfig) { cfg.seed = seed }
}

// WithNulls blanks some feature cells so imputation has work to do.
func WithNulls() DatasetOption {
	return func(cfg *datasetConfig) { cfg.nulls = true }
}

// WithLatin1 writes the file in ISO-8859-1 instead of UTF-8.
func WithLatin1() DatasetOption {
	return func(cfg *datasetConfig) { cfg.latin1 = true }
}

func newConfig(opts []DatasetOption) *datasetConfig {
	cfg := &datasetConfig{rows: defaultRowCount, seed: defaultSeed}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ACColumns is the header of the synthetic air conditioner catalogue.
//
//nolint:gochecknoglobals // fixture header
var ACColumns = []string{"Brand", "Power_Consumption", "Noise_level", "Refrigerant", "Condenser_Coil", "Price"}

// ACRecords generates an air conditioner catalogue whose price depends on
// every feature column, so fitted models score well above zero.
func ACRecords(opts ...DatasetOption) [][]string {
	cfg := newConfig(opts)
	rng := rand.New(rand.NewPCG(cfg.seed, 1))

	brands := []string{"LG", "Voltas", "Daikin", "Café Cool"}
	refrigerants := []string{"R-32 Refrigerant", "R410a", "R-22"}
	coils := []string{"Copper", "Aluminium"}

	rows := make([][]string, cfg.rows)
	for i := range rows {
		power := 800 + rng.IntN(1200)
		noise := 30 + rng.IntN(20)
		refrigerant := rng.IntN(len(refrigerants))
		coil := rng.IntN(len(coils))

		price := 15000 + 9*float64(power) - 150*float64(noise)
		price += []float64{6000, 3000, 0}[refrigerant]
		price += []float64{4000, 0}[coil]
		price += rng.NormFloat64() * 500

		row := []string{
			brands[i%len(brands)],
			fmt.Sprintf("%d W", power),
			fmt.Sprintf("%d dB", noise),
			refrigerants[refrigerant],
			coils[coil],
			thousands(price),
		}
		if cfg.nulls && i%nullEvery == 1 {
			row[1], row[4] = "", ""
		}
		rows[i] = row
	}
	return rows
}

// TVColumns is the header of the synthetic smart TV catalogue.
//
//nolint:gochecknoglobals // fixture header
var TVColumns = []string{
	"Brand", "Operating_system", "Picture_quality", "Speaker", "Frequency", "channel", "current_price",
}

// TVRecords generates a smart TV catalogue with raw operating system,
// picture quality and speaker strings.
func TVRecords(opts ...DatasetOption) [][]string {
	cfg := newConfig(opts)
	rng := rand.New(rand.NewPCG(cfg.seed, 2))

	brands := []string{"Samsung", "Sony", "Téléfunken"}
	systems := []string{"Android TV 11", "Linux based", "Google TV", "Tizen"}
	qualities := []string{"4K Ultra HD", "Full HD", "HD Ready", "8K"}
	speakers := []int{20, 30, 40, 80, 100}
	frequencies := []string{"50 Hz", "60 Hz", "120 Hz"}
	channels := []string{"Netflix|Prime Video", "YouTube", "Netflix|YouTube|Disney+"}

	rows := make([][]string, cfg.rows)
	for i := range rows {
		system := rng.IntN(len(systems))
		quality := rng.IntN(len(qualities))
		speaker := rng.IntN(len(speakers))
		frequency := rng.IntN(len(frequencies))
		channel := rng.IntN(len(channels))

		price := 12000.0
		price += []float64{5000, 2000, 7000, 4000}[system]
		price += []float64{25000, 10000, 0, 60000}[quality]
		price += 150 * float64(speakers[speaker])
		price += []float64{0, 1500, 6000}[frequency]
		price += rng.NormFloat64() * 800

		row := []string{
			brands[i%len(brands)],
			systems[system],
			qualities[quality],
			fmt.Sprintf("%d W Output", speakers[speaker]),
			frequencies[frequency],
			channels[channel],
			fmt.Sprintf("%.0f", price),
		}
		if cfg.nulls && i%nullEvery == 1 {
			row[3], row[4] = "", ""
		}
		rows[i] = row
	}
	return rows
}

// thousands renders v rounded to a whole number with comma grouping, as
// catalogue prices are usually listed.
func thousands(v float64) string {
	digits := strconv.FormatInt(int64(math.Round(v)), 10)
	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	return sb.String()
}

// WriteCSV writes header and rows to name inside a fresh temporary
// directory and returns the path.
func WriteCSV(tb testing.TB, name string, header []string, rows [][]string, opts ...DatasetOption) string {
	tb.Helper()
	cfg := newConfig(opts)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(tb, w.Write(header))
	require.NoError(tb, w.WriteAll(rows))

	data := buf.Bytes()
	if cfg.latin1 {
		encoded, err := charmap.ISO8859_1.NewEncoder().Bytes(data)
		require.NoError(tb, err)
		data = encoded
	}

	path := filepath.Join(tb.TempDir(), name)
	require.NoError(tb, os.WriteFile(path, data, 0o600))
	return path
}

// WriteACDataset writes a synthetic air conditioner catalogue.
func WriteACDataset(tb testing.TB, opts ...DatasetOption) string {
	tb.Helper()
	return WriteCSV(tb, "ac.csv", ACColumns, ACRecords(opts...), opts...)
}

// WriteTVDataset writes a synthetic smart TV catalogue.
func WriteTVDataset(tb testing.TB, opts ...DatasetOption) string {
	tb.Helper()
	return WriteCSV(tb, "smart_tv.csv", TVColumns, TVRecords(opts...), opts...)
}

// AssertDataFrameEqual compares column names and every cell rendered as text.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")
	require.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")
	require.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")

	for _, name := range expected.Columns() {
		want, _ := expected.Column(name)
		got, _ := actual.Column(name)
		for i := 0; i < want.Len(); i++ {
			assert.Equal(t, want.IsNull(i), got.IsNull(i), "column %s row %d null mismatch", name, i)
			if !want.IsNull(i) {
				assert.Equal(t, want.GetAsString(i), got.GetAsString(i), "column %s row %d", name, i)
			}
		}
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Len(t, df.Columns(), len(expectedColumns), "column count should match")
	for _, col := range expectedColumns {
		assert.True(t, df.HasColumn(col), "DataFrame should have column %s", col)
	}
}

// AssertDataFrameNotEmpty verifies that a DataFrame is not empty.
func AssertDataFrameNotEmpty(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Positive(t, df.Len(), "DataFrame should not be empty")
	assert.Positive(t, df.Width(), "DataFrame should have columns")
}
