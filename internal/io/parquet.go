package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/series"
)

// Read reads Parquet data and returns a DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{
		BatchSize: int64(r.options.BatchSize),
	}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataFrame(table)
}

// arrowTableToDataFrame converts an Arrow table to a DataFrame.
func (r *ParquetReader) arrowTableToDataFrame(table arrow.Table) (*dataframe.DataFrame, error) {
	schema := table.Schema()
	seriesList := make([]dataframe.ISeries, 0, table.NumCols())

	for i := range int(table.NumCols()) {
		field := schema.Field(i)
		s, err := r.chunkedToSeries(field.Name, table.Column(i).Data(), field.Type)
		if err != nil {
			for _, built := range seriesList {
				built.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// chunkedToSeries flattens every chunk of a column into one nullable Series.
func (r *ParquetReader) chunkedToSeries(
	name string, chunked *arrow.Chunked, dataType arrow.DataType,
) (dataframe.ISeries, error) {
	n := chunked.Len()
	valid := make([]bool, 0, n)

	//nolint:exhaustive // Only handling supported types for now
	switch dataType.ID() {
	case arrow.INT64:
		values := make([]int64, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Int64)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case arrow.INT32:
		values := make([]int64, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Int32)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, int64(arr.Value(i)))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case arrow.FLOAT64:
		values := make([]float64, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Float64)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case arrow.FLOAT32:
		values := make([]float64, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Float32)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, float64(arr.Value(i)))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case arrow.STRING:
		values := make([]string, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.String)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case arrow.BOOL:
		values := make([]bool, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Boolean)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
				valid = append(valid, arr.IsValid(i))
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	default:
		return nil, fmt.Errorf("unsupported Arrow type: %s", dataType)
	}
}

// Write writes the DataFrame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	table := w.dataFrameToArrowTable(df)
	defer table.Release()

	var compression compress.Compression
	switch w.options.Compression {
	case "gzip":
		compression = compress.Codecs.Gzip
	case "zstd":
		compression = compress.Codecs.Zstd
	case "uncompressed":
		compression = compress.Codecs.Uncompressed
	default:
		compression = compress.Codecs.Snappy
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compression),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	// pqarrow closes sinks that implement io.Closer; the caller owns w.writer.
	sink := struct{ io.Writer }{w.writer}
	writer, err := pqarrow.NewFileWriter(table.Schema(), sink, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	chunkSize := int64(df.Len())
	if chunkSize == 0 {
		chunkSize = 1
	}
	if err := writer.WriteTable(table, chunkSize); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

// dataFrameToArrowTable converts a DataFrame to an Arrow table, keeping nulls.
func (w *ParquetWriter) dataFrameToArrowTable(df *dataframe.DataFrame) arrow.Table {
	names := df.Columns()
	fields := make([]arrow.Field, 0, len(names))
	columns := make([]arrow.Column, 0, len(names))

	for _, name := range names {
		col, _ := df.Column(name)
		arr := col.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		fields = append(fields, field)

		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		columns = append(columns, *arrow.NewColumn(field, chunked))
		chunked.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewTable(schema, columns, int64(df.Len()))
}
