package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/studybuddy/internal/database"
	"github.com/example/studybuddy/internal/study"
	"github.com/example/studybuddy/pkg/models"
)

func newTestImporter(t *testing.T) (*Importer, int64) {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &models.User{Username: "importer", WordsPerDay: 10, NotificationHour: 9}
	require.NoError(t, database.NewUserRepository(db).Create(context.Background(), user))

	svc := study.NewService(database.NewVocabularyRepository(db))
	return NewImporter(svc), user.ID
}

func writeTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	for n, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, n+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestImportForUser(t *testing.T) {
	importer, userID := newTestImporter(t)

	path := writeTestXLSX(t, [][]string{
		{"word", "translation", "definition", "example"},
		{"ubiquitous", "вездесущий", "present everywhere", "Smartphones are ubiquitous."},
		{"laconic", "немногословный", "", ""},
		{"", "missing word", "", ""},
	})

	result, err := importer.ImportForUser(context.Background(), userID, path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, result.Errors, 1)

	// Importing the same file again skips the existing words
	result, err = importer.ImportForUser(context.Background(), userID, path)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Skipped)
}

func TestImportFromCSV(t *testing.T) {
	importer, userID := newTestImporter(t)

	path := filepath.Join(t.TempDir(), "words.csv")
	content := "word,translation\nresilient,стойкий\ncandid,откровенный\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	result, err := importer.ImportForUser(context.Background(), userID, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
}

func TestImportMissingFile(t *testing.T) {
	importer, userID := newTestImporter(t)

	_, err := importer.ImportForUser(context.Background(), userID, "does-not-exist.xlsx")
	assert.Error(t, err)
}
