package io_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/io"
	"github.com/paveg/appraise/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCatalogue(t *testing.T, mem memory.Allocator) *dataframe.DataFrame {
	t.Helper()
	brand := series.New("Brand", []string{"LG", "Voltas", "Daikin"}, mem)
	power, err := series.NewNullable("Power_Consumption", []float64{1500, 0, 1210.5}, []bool{true, false, true}, mem)
	require.NoError(t, err)
	price := series.New("Price", []int64{45990, 32990, 38990}, mem)
	inverter := series.New("Inverter", []bool{true, false, true}, mem)
	return dataframe.New(brand, power, price, inverter)
}

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := buildCatalogue(t, mem)
	defer df.Release()

	for _, codec := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(codec, func(t *testing.T) {
			var buf bytes.Buffer
			opts := io.DefaultParquetOptions()
			opts.Compression = codec
			require.NoError(t, io.NewParquetWriter(&buf, opts).Write(df))

			back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), opts, mem).Read()
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, df.Columns(), back.Columns())
			assert.Equal(t, 3, back.Len())

			power, _ := back.Column("Power_Consumption")
			assert.True(t, power.IsNull(1))
			assert.Equal(t, "1210.5", power.GetAsString(2))

			brand, _ := back.Column("Brand")
			assert.Equal(t, "Voltas", brand.GetAsString(1))

			inverter, _ := back.Column("Inverter")
			assert.Equal(t, "false", inverter.GetAsString(1))
		})
	}
}

func TestParquetWriterLeavesFileOpen(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := buildCatalogue(t, mem)
	defer df.Release()

	path := filepath.Join(t.TempDir(), "catalogue.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, io.NewParquetWriter(f, io.DefaultParquetOptions()).Write(df))
	require.NoError(t, f.Close())

	res, err := io.Load(path, io.DefaultLoadOptions())
	require.NoError(t, err)
	defer res.Table.Release()
	assert.Equal(t, 3, res.Table.Len())
}

func TestLoadParquet(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := buildCatalogue(t, mem)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewParquetWriter(&buf, io.DefaultParquetOptions()).Write(df))
	path := filepath.Join(t.TempDir(), "ac.parquet")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	res, err := io.Load(path, io.DefaultLoadOptions())
	require.NoError(t, err)
	defer res.Table.Release()

	assert.Equal(t, "parquet", res.Encoding)
	assert.Equal(t, 3, res.Table.Len())
}

func TestParquetReaderInvalidInput(t *testing.T) {
	_, err := io.NewParquetReader(bytes.NewReader([]byte("not parquet")), io.DefaultParquetOptions(), nil).Read()
	assert.Error(t, err)
}
