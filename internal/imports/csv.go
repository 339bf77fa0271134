package imports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"leadcrm_backend/platform/apperr"
)

// Columns the import understands. Contact number and source are mandatory;
// the rest are optional.
const (
	colContact  = "contact"
	colSource   = "source"
	colName     = "name"
	colEmail    = "email"
	colLanguage = "language"
	colComment  = "comment"
)

// headerAliases maps normalized header cells to canonical columns. Files
// come from several CRM exports, so common spellings are accepted.
var headerAliases = map[string]string{
	"contactnumber": colContact,
	"contact":       colContact,
	"phone":         colContact,
	"phonenumber":   colContact,
	"mobile":        colContact,
	"source":        colSource,
	"leadsource":    colSource,
	"name":          colName,
	"fullname":      colName,
	"email":         colEmail,
	"language":      colLanguage,
	"comment":       colComment,
	"comments":      colComment,
	"notes":         colComment,
}

// File is one parsed import file: the original headers, the data rows in
// input order, and the mapping from canonical columns to cell positions.
type File struct {
	Headers []string
	Rows    []Row

	columns map[string]int
}

// Row keeps the original cells so failures can be re-exported unchanged.
type Row struct {
	Number int // 1-based data row number
	Values []string
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
	return h
}

// parseFile reads and validates the CSV. Whole-file problems (unreadable
// content, missing mandatory headers, zero data rows, too many rows) reject
// the upload before any row is processed.
func parseFile(data []byte, maxRows int) (*File, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows fail per row, not per file

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.ImportFile("file is not valid CSV: " + err.Error())
	}
	if len(records) == 0 {
		return nil, apperr.ImportFile("file is empty")
	}

	f := &File{
		Headers: records[0],
		columns: make(map[string]int),
	}
	for i, h := range records[0] {
		if canonical, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := f.columns[canonical]; !dup {
				f.columns[canonical] = i
			}
		}
	}
	var missing []string
	for _, required := range []string{colContact, colSource} {
		if _, ok := f.columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.ImportFile("missing mandatory column headers: " + strings.Join(missing, ", "))
	}

	dataRows := records[1:]
	if len(dataRows) == 0 {
		return nil, apperr.ImportFile("file has no data rows")
	}
	if len(dataRows) > maxRows {
		return nil, apperr.ImportFile(fmt.Sprintf("file has %d data rows, the limit is %d", len(dataRows), maxRows))
	}

	f.Rows = make([]Row, 0, len(dataRows))
	for i, cells := range dataRows {
		f.Rows = append(f.Rows, Row{Number: i + 1, Values: cells})
	}
	return f, nil
}

// Field returns a row's cell for a canonical column, "" when the column is
// absent or the row is short.
func (f *File) Field(row Row, column string) string {
	i, ok := f.columns[column]
	if !ok || i >= len(row.Values) {
		return ""
	}
	return strings.TrimSpace(row.Values[i])
}

// renderFailureCSV writes the failed rows back out with their original
// columns plus a trailing error column. Fixing the flagged cells and
// deleting the error column makes the file re-uploadable as-is.
func renderFailureCSV(headers []string, failures []RowFailure) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(append(append([]string{}, headers...), "error")); err != nil {
		return nil, err
	}
	for _, f := range failures {
		row := append(append([]string{}, f.Values...), f.Reason)
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
