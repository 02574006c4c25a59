package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
	boolType = "bool"
)

// Read reads CSV data and returns a DataFrame. Empty cells become nulls.
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	// Ragged rows are padded below rather than rejected.
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := 0; i < numCols; i++ {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	// Transpose data to work with columns
	numCols := len(headers)
	columns := make([][]string, numCols)
	for i := 0; i < numCols; i++ {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, numCols)
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, built := range seriesList {
				built.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataframe.ISeries, error) {
	valid := make([]bool, len(data))
	for i, value := range data {
		valid[i] = strings.TrimSpace(value) != ""
	}

	if !r.options.InferTypes {
		return series.NewNullable(name, data, valid, r.mem)
	}

	switch r.inferDataType(data) {
	case boolType:
		return r.createBoolSeries(name, data, valid)
	case "int":
		return r.createIntSeries(name, data, valid)
	case "float":
		return r.createFloatSeries(name, data, valid)
	default:
		return series.NewNullable(name, data, valid, r.mem)
	}
}

// inferDataType determines the most appropriate data type for the given string data
func (r *CSVReader) inferDataType(data []string) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false

	for _, raw := range data {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue // Skip empty values for type inference
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}

		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}

		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	if !hasNonEmptyValue {
		return "string"
	}

	if canBeBool {
		return boolType
	}
	if canBeInt {
		return "int"
	}
	if canBeFloat {
		return "float"
	}
	return "string"
}

// createBoolSeries creates a boolean series from string data
func (r *CSVReader) createBoolSeries(name string, data []string, valid []bool) (dataframe.ISeries, error) {
	boolData := make([]bool, len(data))
	for i, value := range data {
		boolData[i] = strings.EqualFold(strings.TrimSpace(value), trueStr)
	}
	return series.NewNullable(name, boolData, valid, r.mem)
}

// createIntSeries creates an integer series from string data
func (r *CSVReader) createIntSeries(name string, data []string, valid []bool) (dataframe.ISeries, error) {
	intData := make([]int64, len(data))
	for i, value := range data {
		if valid[i] {
			intData[i], _ = strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		}
	}
	return series.NewNullable(name, intData, valid, r.mem)
}

// createFloatSeries creates a float series from string data
func (r *CSVReader) createFloatSeries(name string, data []string, valid []bool) (dataframe.ISeries, error) {
	floatData := make([]float64, len(data))
	for i, value := range data {
		if valid[i] {
			floatData[i], _ = strconv.ParseFloat(strings.TrimSpace(value), 64)
		}
	}
	return series.NewNullable(name, floatData, valid, r.mem)
}

// Write writes the DataFrame to CSV format. Missing values are written as
// empty cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := df.Columns()
	for i := 0; i < df.Len(); i++ {
		row := make([]string, len(columns))
		for j, colName := range columns {
			column, exists := df.Column(colName)
			if !exists {
				continue
			}
			row[j] = column.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
