// Package importer reads practice exercise sheets uploaded by admins.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fluencyjet/sentence-master/internal/dto"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .xlsx")

// Column headers, matched case-insensitively. Aliases on the right.
var headerAliases = map[string]string{
	"day_number":   "day_number",
	"day":          "day_number",
	"lesson":       "day_number",
	"lesson_id":    "day_number",
	"difficulty":   "difficulty",
	"level":        "difficulty",
	"track":        "difficulty",
	"day_title":    "day_title",
	"title":        "day_title",
	"type":         "type",
	"mode":         "type",
	"order_index":  "order_index",
	"order":        "order_index",
	"tamil_prompt": "tamil_prompt",
	"prompt":       "tamil_prompt",
	"tamil":        "tamil_prompt",
	"words":        "words",
	"sentence":     "sentence",
	"answer":       "sentence",
}

var requiredColumns = []string{"day_number", "difficulty", "type", "order_index"}

// Result is the parsed rows plus a message for every row that was rejected.
type Result struct {
	Rows   []dto.BulkExerciseRow
	Errors []string
}

// Parse picks a reader from the file extension.
func Parse(filename string, r io.Reader) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseCSV reads a header row followed by one exercise per line.
func ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return parseRecords(records)
}

// ParseXLSX reads the first sheet of a workbook.
func ParseXLSX(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return parseRecords(rows)
}

func parseRecords(records [][]string) (*Result, error) {
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}

	columns, err := mapHeader(records[0])
	if err != nil {
		return nil, err
	}

	result := &Result{Errors: make([]string, 0)}
	for i, record := range records[1:] {
		rowNum := i + 2
		if blank(record) {
			continue
		}
		row, err := parseRow(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.ReplaceAll(name, " ", "_")
		if canonical, ok := headerAliases[name]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int) (dto.BulkExerciseRow, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	day, err := strconv.Atoi(cell("day_number"))
	if err != nil || day <= 0 {
		return dto.BulkExerciseRow{}, fmt.Errorf("day_number must be a positive integer")
	}
	order, err := strconv.Atoi(cell("order_index"))
	if err != nil || order < 0 {
		return dto.BulkExerciseRow{}, fmt.Errorf("order_index must be a non-negative integer")
	}

	row := dto.BulkExerciseRow{
		DayNumber:   day,
		Difficulty:  cell("difficulty"),
		DayTitle:    cell("day_title"),
		Type:        strings.ToLower(cell("type")),
		OrderIndex:  order,
		TamilPrompt: cell("tamil_prompt"),
		Sentence:    cell("sentence"),
		Words:       SplitWords(cell("words")),
	}
	row.Mode = row.Type
	if len(row.Words) == 0 {
		row.Words = strings.Fields(row.Sentence)
	}
	return row, nil
}

// SplitWords splits a words cell on "|" when present, otherwise on spaces.
func SplitWords(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, "|") {
		return strings.Fields(s)
	}
	parts := strings.Split(s, "|")
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if w := strings.TrimSpace(p); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
