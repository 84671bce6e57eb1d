package core

// parse.go turns uploaded bytes into RawRecords.
//
// Every format goes through the same header handling: the first row names the
// columns, blank header cells become "column_<n>" (1-based), and data cells
// past the last header get the same treatment. Only the first sheet of a
// workbook is read.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// Supported file types.
const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
	FileTypeXLS  = "xls"
)

const utf8BOM = "\ufeff"

// DetectFileType picks the parser for an upload. The file extension decides
// when there is one; a name without an extension falls back to sniffing the
// content.
func DetectFileType(fileName string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch ext {
	case FileTypeCSV, FileTypeXLSX, FileTypeXLS:
		return ext, nil
	case "":
		// sniff below
	default:
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FileTypeXLSX, nil
	case mt.Is("application/vnd.ms-excel"):
		return FileTypeXLS, nil
	case mt.Is("text/csv"), mt.Is("text/plain"):
		return FileTypeCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

// ParseFile parses data as fileType. A file without even a header row is
// ErrEmptyFile; anything the parser rejects is ErrUnreadableFile.
func ParseFile(data []byte, fileType string) ([]RawRecord, error) {
	var (
		rows [][]string
		err  error
	)

	switch fileType {
	case FileTypeCSV:
		rows, err = readCSV(data)
	case FileTypeXLSX:
		rows, err = readXLSX(data)
	case FileTypeXLS:
		rows, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return toRecords(rows), nil
}

func readCSV(data []byte) ([][]string, error) {
	text := strings.TrimPrefix(string(data), utf8BOM)
	text = strings.ToValidUTF8(text, "\uFFFD")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, sheets[0], err)
	}
	return rows, nil
}

// readXLS reads the first sheet of a BIFF workbook. The xls decoder panics on
// some malformed input, so panics are reported as ErrUnreadableFile.
func readXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: %v", ErrUnreadableFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			if c < row.FirstCol() {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}

	// MaxRow counts trailing rows that hold no cells at all.
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

// toRecords pairs every data row with the header row.
func toRecords(rows [][]string) []RawRecord {
	header := rows[0]
	records := make([]RawRecord, 0, len(rows)-1)

	for _, row := range rows[1:] {
		rec := make(RawRecord, 0, len(row))
		for i, v := range row {
			rec = append(rec, Cell{Column: columnName(header, i), Value: strings.TrimSpace(v)})
		}
		records = append(records, rec)
	}
	return records
}

func columnName(header []string, i int) string {
	if i < len(header) {
		if name := strings.TrimSpace(header[i]); name != "" {
			return name
		}
	}
	return "column_" + strconv.Itoa(i+1)
}
