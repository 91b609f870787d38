package upload

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFileType is returned for files that are not csv, excel, word
// or plain text. The check runs before any network call.
var ErrUnsupportedFileType = errors.New("unsupported file type")

const (
	TypeCSV  = "text/csv"
	TypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TypeXLS  = "application/vnd.ms-excel"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeDOC  = "application/msword"
	TypeTXT  = "text/plain"
)

var allowedTypes = map[string]struct{}{
	TypeCSV: {}, TypeXLSX: {}, TypeXLS: {}, TypeDOCX: {}, TypeDOC: {}, TypeTXT: {},
}

var typeByExtension = map[string]string{
	".csv":  TypeCSV,
	".xlsx": TypeXLSX,
	".xls":  TypeXLS,
	".docx": TypeDOCX,
	".doc":  TypeDOC,
	".txt":  TypeTXT,
}

// ResolveFileType returns the canonical MIME type of an upload. The declared
// content type wins; when it is empty or application/octet-stream the file
// extension decides.
func ResolveFileType(fileName string, contentType string) (string, error) {
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", ErrUnsupportedFileType
		}
		mediaType = strings.ToLower(mt)
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(fileName))
		t, ok := typeByExtension[ext]
		if !ok {
			return "", ErrUnsupportedFileType
		}
		return t, nil
	}

	if _, ok := allowedTypes[mediaType]; !ok {
		return "", ErrUnsupportedFileType
	}
	return mediaType, nil
}

// File icon categories shown next to an uploaded file.
const (
	IconSpreadsheet = "spreadsheet"
	IconText        = "text"
	IconFile        = "file"
)

// FileIcon returns the icon category of a file name.
func FileIcon(fileName string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "csv", "xlsx", "xls":
		return IconSpreadsheet
	case "doc", "docx", "txt":
		return IconText
	default:
		return IconFile
	}
}
