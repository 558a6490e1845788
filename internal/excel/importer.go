package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybuddy/internal/study"
)

// Importer bulk-loads vocabulary items from spreadsheet files
type Importer struct {
	study *study.Service
}

// NewImporter creates an importer over the study service
func NewImporter(studySvc *study.Service) *Importer {
	return &Importer{study: studySvc}
}

// ImportConfig defines how rows are read from the file
type ImportConfig struct {
	SheetName  string // sheet to import (Excel only)
	SkipHeader bool
}

// DefaultImportConfig returns the default import configuration: Sheet1 with a
// header row, columns word / translation / definition / example
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:  "Sheet1",
		SkipHeader: true,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportForUser imports words for one user from an Excel or CSV file using
// the default configuration. Each row becomes an item with scheduler
// defaults; words the user already studies are skipped.
func (i *Importer) ImportForUser(ctx context.Context, userID int64, filePath string) (*ImportResult, error) {
	return i.ImportForUserWithConfig(ctx, userID, filePath, DefaultImportConfig())
}

// ImportForUserWithConfig imports words with an explicit configuration
func (i *Importer) ImportForUserWithConfig(ctx context.Context, userID int64, filePath string, config ImportConfig) (*ImportResult, error) {
	rows, err := readRows(filePath, config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	now := time.Now()

	for n, row := range rows {
		if config.SkipHeader && n == 0 {
			continue
		}
		result.TotalProcessed++

		input := rowToInput(row)
		_, err := i.study.AddItem(ctx, userID, input, now)
		switch {
		case err == nil:
			result.Created++
		case err == study.ErrDuplicateWord:
			result.Skipped++
		case err == study.ErrInvalidInput:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: word and translation are required", n+1))
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", n+1, err))
		}
	}

	return result, nil
}

// rowToInput maps spreadsheet columns to an item: A word, B translation,
// C definition, D example
func rowToInput(row []string) study.AddItemInput {
	get := func(idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	return study.AddItemInput{
		Word:        get(0),
		Translation: get(1),
		Definition:  get(2),
		Example:     get(3),
		SourceTag:   "import",
	}
}

// readRows loads all rows from an .xlsx or .csv file
func readRows(filePath string, config ImportConfig) ([][]string, error) {
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		return readCSVRows(filePath)
	}

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(filePath string) ([][]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}
