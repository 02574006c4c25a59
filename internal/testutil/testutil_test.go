package testutil_test

import (
	"testing"

	"github.com/paveg/appraise/internal/io"
	"github.com/paveg/appraise/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMemoryTest(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	require.NotNil(t, mem.Allocator)
}

func TestACRecords(t *testing.T) {
	t.Run("deterministic per seed", func(t *testing.T) {
		assert.Equal(t, testutil.ACRecords(testutil.WithSeed(3)), testutil.ACRecords(testutil.WithSeed(3)))
		assert.NotEqual(t, testutil.ACRecords(testutil.WithSeed(3)), testutil.ACRecords(testutil.WithSeed(4)))
	})

	t.Run("row count and shape", func(t *testing.T) {
		rows := testutil.ACRecords(testutil.WithRows(12))
		require.Len(t, rows, 12)
		for _, row := range rows {
			assert.Len(t, row, len(testutil.ACColumns))
			assert.Regexp(t, `^\d+ W$`, row[1])
			assert.Regexp(t, `^\d{1,3}(,\d{3})*$`, row[5])
		}
	})

	t.Run("nulls blank feature cells", func(t *testing.T) {
		rows := testutil.ACRecords(testutil.WithRows(20), testutil.WithNulls())
		assert.Empty(t, rows[1][1])
		assert.Empty(t, rows[1][4])
		assert.NotEmpty(t, rows[0][1])
	})
}

func TestWriteDatasets(t *testing.T) {
	t.Run("air conditioner catalogue loads as utf-8", func(t *testing.T) {
		path := testutil.WriteACDataset(t, testutil.WithRows(10))

		res, err := io.Load(path, io.DefaultLoadOptions())
		require.NoError(t, err)
		defer res.Table.Release()

		assert.Equal(t, "utf-8", res.Encoding)
		assert.Equal(t, 10, res.Table.Len())
		testutil.AssertDataFrameHasColumns(t, res.Table, testutil.ACColumns)
	})

	t.Run("latin-1 catalogue falls back", func(t *testing.T) {
		path := testutil.WriteTVDataset(t, testutil.WithRows(6), testutil.WithLatin1())

		opts := io.DefaultLoadOptions()
		opts.Encodings = []string{"utf-8", "latin-1"}
		res, err := io.Load(path, opts)
		require.NoError(t, err)
		defer res.Table.Release()

		assert.Equal(t, "latin-1", res.Encoding)
		brand, ok := res.Table.Column("Brand")
		require.True(t, ok)
		assert.Equal(t, "Téléfunken", brand.GetAsString(2))
	})
}

func TestAssertDataFrameEqual(t *testing.T) {
	path := testutil.WriteTVDataset(t, testutil.WithRows(5))

	first, err := io.Load(path, io.DefaultLoadOptions())
	require.NoError(t, err)
	defer first.Table.Release()
	second, err := io.Load(path, io.DefaultLoadOptions())
	require.NoError(t, err)
	defer second.Table.Release()

	testutil.AssertDataFrameEqual(t, first.Table, second.Table)
	testutil.AssertDataFrameNotEmpty(t, first.Table)
}
