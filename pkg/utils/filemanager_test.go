package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("kvitto"), 0644))
}

func TestDiscoverReceipts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.TXT"))
	touch(t, filepath.Join(dir, "notes.md"))
	touch(t, filepath.Join(dir, "sub", "c.pdf"))

	fm := NewFileManager(dir, "", "")
	files, err := fm.DiscoverReceipts()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.TXT"), filepath.Join(dir, "b.pdf")}, files)
}

func TestDiscoverReceiptsMissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "nope"), "", "")
	_, err := fm.DiscoverReceipts()
	assert.Error(t, err)
}

func TestArchiveReceipt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "kvitto.pdf")
	touch(t, src)

	fm := NewFileManager(filepath.Join(dir, "in"), filepath.Join(dir, "out"), filepath.Join(dir, "archive"))

	got, err := fm.ArchiveReceipt(src)
	require.NoError(t, err)
	assert.Equal(t, src, got, "archiving disabled leaves the receipt")
	assert.True(t, FileExists(src))

	fm.ArchiveOnSuccess = true
	require.NoError(t, fm.EnsureDirectories())
	got, err = fm.ArchiveReceipt(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", "kvitto.pdf"), got)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(got))
}

func TestArchiveReceiptTimestampSubdirs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "kvitto.pdf")
	touch(t, src)

	fm := NewFileManager(dir, dir, filepath.Join(dir, "archive"))
	fm.ArchiveOnSuccess = true
	fm.UseTimestampSubdirs = true

	got, err := fm.ArchiveReceipt(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", time.Now().Format("2006"), time.Now().Format("01")), filepath.Dir(filepath.Dir(got)))
}

func TestGenerateOutputFileName(t *testing.T) {
	assert.Equal(t, "kvitto_Skrubbenpriser.txt",
		GenerateOutputFileName("{original}_Skrubbenpriser.txt", map[string]string{"original": "kvitto"}))
	assert.Equal(t, "kvitto.txt",
		GenerateOutputFileName("{original}", map[string]string{"original": "kvitto"}))

	name := GenerateOutputFileName("{date}_{uuid}.csv", nil)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}_[0-9a-f-]{36}\.csv$`), name)
}

func TestOutputPathFor(t *testing.T) {
	fm := NewFileManager("in", "out", "archive")
	assert.Equal(t, filepath.Join("out", "kvitto_0412_Skrubbenpriser.txt"),
		fm.OutputPathFor(filepath.Join("in", "kvitto_0412.pdf"), "{original}_Skrubbenpriser.txt"))
}

func TestOutputPathsForDisambiguatesSharedNames(t *testing.T) {
	fm := NewFileManager("in", "out", "archive")

	paths := fm.OutputPathsFor([]string{
		filepath.Join("a", "kvitto.pdf"),
		filepath.Join("b", "kvitto.pdf"),
		filepath.Join("a", "kvitto_0412.pdf"),
		filepath.Join("c", "kvitto.txt"),
	}, "{original}_Skrubbenpriser.txt")

	assert.Equal(t, []string{
		filepath.Join("out", "kvitto_Skrubbenpriser.txt"),
		filepath.Join("out", "kvitto_Skrubbenpriser_2.txt"),
		filepath.Join("out", "kvitto_0412_Skrubbenpriser.txt"),
		filepath.Join("out", "kvitto_Skrubbenpriser_3.txt"),
	}, paths)
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "kvitto.pdf",
		ErrorType:    "malformed_receipt",
		ErrorMessage: "missing quantity",
		LineNumber:   7,
		FieldName:    "quantity",
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Errors: 1")
	assert.Contains(t, text, "kvitto.pdf")
	assert.Contains(t, text, "Line:           7")
	assert.NotContains(t, text, "Value:")
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Now()

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalItems:      12,
		ProcessedFiles:  []ProcessedFileInfo{{InputFile: "a.pdf", OutputFile: "a.txt", Items: 12}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.pdf", ErrorMessage: "no item table"}},
	}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Receipts: 2")
	assert.Contains(t, text, "Priced Items:   12")
	assert.Contains(t, text, "Error: no item table")
	assert.True(t, strings.HasSuffix(text, "End of Summary\n"))
}
