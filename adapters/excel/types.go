package excel

import (
	"path/filepath"
	"strings"
)

// FileType identifies which parser handles an upload
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeTSV  FileType = "tsv"
	FileTypeXLSX FileType = "xlsx"
)

// extensionTypes maps lower-cased extensions to parsers
var extensionTypes = map[string]FileType{
	".csv":  FileTypeCSV,
	".txt":  FileTypeTSV,
	".xlsx": FileTypeXLSX,
}

// DetectFileType selects a parser from the filename extension
func DetectFileType(filename string) (FileType, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	ft, ok := extensionTypes[ext]
	return ft, ext, ok
}

// SupportedExtensions lists accepted extensions for upload forms
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".txt"}
}
