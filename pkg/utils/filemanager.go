// =============================================================================
// Skrubbify - File Manager Utility
// =============================================================================
//
// This module provides the file handling around batch runs:
//   - Receipt discovery in the input directory
//   - Receipt archival (moving processed receipts)
//   - Report file naming
//   - Error log and run summary generation
//
// ARCHIVAL STRATEGY:
//   - Receipts are moved to the archive directory after a report was written
//   - Failed receipts remain in the input directory so they can be retried
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReceiptExtensions are the file extensions discovered as receipts.
var ReceiptExtensions = []string{".pdf", ".txt"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for batch runs.
type FileManager struct {
	// InputDir is the directory scanned for receipts.
	InputDir string

	// OutputDir is the directory reports and logs are written to.
	OutputDir string

	// ArchiveDir is the directory processed receipts are moved to.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2024/01/15/kvitto.pdf
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether receipts are archived after
	// their report was written.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, archiveDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory, and the archive
// directory when archiving is enabled.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir}
	if fm.ArchiveOnSuccess {
		dirs = append(dirs, fm.ArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverReceipts lists the receipts in the input directory, sorted by
// name. Subdirectories are not scanned.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverReceipts() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() || !IsReceiptFile(entry.Name()) {
			continue
		}
		result = append(result, filepath.Join(fm.InputDir, entry.Name()))
	}

	sort.Strings(result)
	return result, nil
}

// IsReceiptFile reports whether name has a receipt extension.
func IsReceiptFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ReceiptExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveReceipt moves a processed receipt to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveReceipt(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy receipt to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original receipt: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands the placeholders of a report name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {original}  - Receipt file name (without extension)
//   - params: A map of additional placeholder values.
//
// EXAMPLE:
//   format: "{original}_{date}.csv"
//   params: {"original": "kvitto_0412"}
//   output: "kvitto_0412_20240115.csv"
//
// Names without an extension get ".txt", the canonical report format.
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += ".txt"
	}

	return result
}

// OutputPathFor returns the report path for a receipt in a batch run.
func (fm *FileManager) OutputPathFor(receiptPath, format string) string {
	original := strings.TrimSuffix(filepath.Base(receiptPath), filepath.Ext(receiptPath))
	name := GenerateOutputFileName(format, map[string]string{"original": original})
	return filepath.Join(fm.OutputDir, name)
}

// OutputPathsFor returns one report path per receipt, in order. Receipts
// that would share a report path, such as a/kvitto.pdf and b/kvitto.pdf,
// get a numeric suffix before the extension: kvitto_Skrubbenpriser_2.txt.
func (fm *FileManager) OutputPathsFor(receiptPaths []string, format string) []string {
	paths := make([]string, len(receiptPaths))
	taken := make(map[string]bool, len(receiptPaths))

	for i, receiptPath := range receiptPaths {
		path := fm.OutputPathFor(receiptPath, format)
		if taken[path] {
			ext := filepath.Ext(path)
			stem := strings.TrimSuffix(path, ext)
			for n := 2; taken[path]; n++ {
				path = fmt.Sprintf("%s_%d%s", stem, n, ext)
			}
		}
		taken[path] = true
		paths[i] = path
	}
	return paths
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	LineNumber   int
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// RETURNS:
//   - The path to the error log file, or "" when there were no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logFileName := fmt.Sprintf("error_log_%s.txt", time.Now().Format("20060102_150405"))
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Skrubbify - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.LineNumber > 0 {
			fmt.Fprintf(writer, "  Line:           %d\n", entry.LineNumber)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalItems      int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully priced receipt.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	Items       int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed receipt.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes a run summary to a file in outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryFileName := fmt.Sprintf("processing_summary_%s.txt", time.Now().Format("20060102_150405"))
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Skrubbify - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Receipts: %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Priced Items:   %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalItems)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Receipts:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(writer, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(writer, "  Report:       %s\n", pf.OutputFile)
			if pf.ArchivePath != "" && pf.ArchivePath != pf.InputFile {
				fmt.Fprintf(writer, "  Archived:     %s\n", pf.ArchivePath)
			}
			fmt.Fprintf(writer, "  Items:        %d\n", pf.Items)
			fmt.Fprintf(writer, "  Process Time: %s\n\n", pf.ProcessTime.String())
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Receipts:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(writer, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
