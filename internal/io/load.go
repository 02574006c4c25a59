package io

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/errors"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Encodings are tried in order; the first that decodes the whole file wins.
	// Empty means DefaultEncodings.
	Encodings []string
	// CSV controls delimited-text parsing.
	CSV CSVOptions
	// Allocator backs the resulting columns (default: Go allocator).
	Allocator memory.Allocator
}

// DefaultLoadOptions returns options with the default encoding order.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Encodings: append([]string(nil), DefaultEncodings...),
		CSV:       DefaultCSVOptions(),
	}
}

// LoadResult is a fully materialized dataset.
type LoadResult struct {
	// Table holds every row of the file. The caller releases it.
	Table *dataframe.DataFrame
	// Encoding names the encoding that decoded the file ("parquet" for Parquet input).
	Encoding string
	// Status is a human-readable summary naming the winning encoding.
	Status string
	// Checksum is the xxhash64 of the raw file bytes.
	Checksum uint64
	// Size is the file size in bytes.
	Size int
}

// Load reads the dataset at path. Delimited text is decoded with the first
// encoding in opts.Encodings that accepts every byte; if none does, a decode
// error naming all attempted encodings is returned. Files ending in .parquet
// are read through Arrow and skip the encoding step.
func Load(path string, opts LoadOptions) (*LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	if opts.Allocator == nil {
		opts.Allocator = memory.NewGoAllocator()
	}

	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		table, err := NewParquetReader(bytes.NewReader(raw), DefaultParquetOptions(), opts.Allocator).Read()
		if err != nil {
			return nil, fmt.Errorf("reading parquet dataset %s: %w", path, err)
		}
		return &LoadResult{
			Table:    table,
			Encoding: "parquet",
			Status:   "File successfully read as parquet",
			Checksum: xxhash.Sum64(raw),
			Size:     len(raw),
		}, nil
	}

	names := opts.Encodings
	if len(names) == 0 {
		names = DefaultEncodings
	}

	attempted := make([]string, 0, len(names))
	var lastErr error
	for _, name := range names {
		enc, err := LookupEncoding(name)
		if err != nil {
			return nil, errors.NewConfigError("Load", err.Error())
		}
		attempted = append(attempted, enc.Name)

		text, err := enc.Decode(raw)
		if err != nil {
			lastErr = err
			continue
		}

		table, err := NewCSVReader(strings.NewReader(text), opts.CSV, opts.Allocator).Read()
		if err != nil {
			return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
		}
		return &LoadResult{
			Table:    table,
			Encoding: enc.Name,
			Status:   "File successfully read with encoding: " + enc.Name,
			Checksum: xxhash.Sum64(raw),
			Size:     len(raw),
		}, nil
	}

	return nil, errors.NewDecodeError("Load", attempted, lastErr)
}
