// Package tabular reads the survey export tables from CSV or XLSX files.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row maps trimmed header names to trimmed cell values
type Row map[string]string

// Table is a header row plus data rows
type Table struct {
	Headers []string
	Rows    []Row
}

// MissingColumns lists which of cols are absent from the header row.
func (t *Table) MissingColumns(cols ...string) []string {
	present := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		present[h] = true
	}
	var missing []string
	for _, c := range cols {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// FirstColumn returns the first of candidates present in the header row.
func (t *Table) FirstColumn(candidates ...string) (string, bool) {
	for _, c := range candidates {
		for _, h := range t.Headers {
			if h == c {
				return c, true
			}
		}
	}
	return "", false
}

// ColumnsWithPrefix lists headers starting with prefix, in file order.
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	var cols []string
	for _, h := range t.Headers {
		if strings.HasPrefix(h, prefix) {
			cols = append(cols, h)
		}
	}
	return cols
}

// Reader handles reading Excel and CSV files
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader; the file type comes from the extension.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Resolve returns path if it exists, otherwise an .xlsx sibling if that
// exists, otherwise path unchanged.
func Resolve(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	alt := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
	if _, err := os.Stat(alt); err == nil {
		return alt
	}
	return path
}

// Read loads the whole table
func (r *Reader) Read() (*Table, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, fmt.Errorf("%s file not found: %s: %w", strings.ToUpper(r.fileType), r.filePath, err)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *Reader) readExcel() (*Table, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file %s has no sheets", r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	log.Printf("[TabularReader] %s read in %.2fms (%d rows)", filepath.Base(r.filePath),
		float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

func (r *Reader) readCSV() (*Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	table, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", r.filePath, err)
	}
	log.Printf("[TabularReader] %s read in %.2fms (%d rows)", filepath.Base(r.filePath),
		float64(time.Since(start).Nanoseconds())/1e6, len(table.Rows))
	return table, nil
}

// ReadCSV parses CSV from any reader. A UTF-8 byte order mark on the first
// header is dropped.
func ReadCSV(in io.Reader) (*Table, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return (&Reader{fileType: "csv"}).processRows(rows)
}

// processRows converts raw string rows into a Table
func (r *Reader) processRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s file has no header row", strings.ToUpper(r.fileType))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(Row, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &Table{Headers: headers, Rows: dataRows}, nil
}
