package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/medatlas/geoenrich/internal/models"
)

// Delimiter separates fields in the source exports.
const Delimiter = ';'

// Dataset holds one parsed source file: the header line and every data row,
// raw. Validation happens later, row by row.
type Dataset struct {
	Header []string
	Rows   []models.RawRow
}

var errMissingHeader = errors.New("missing header line")

// ReadFile loads a whole semicolon-delimited dataset from path, decoding the
// given charset. Any failure here concerns the file itself and is wrapped
// with ErrFatalIO.
func ReadFile(path, charset string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFatalIO, path, err)
	}
	defer file.Close()

	data, err := Read(file, charset)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFatalIO, path, err)
	}

	return data, nil
}

// Read parses a semicolon-delimited dataset from r, decoding charset first.
// The first line is the header. Rows keep their raw field values; the field
// count is deliberately not enforced here, so a short row surfaces as a
// recorded validation error rather than a broken file.
func Read(r io.Reader, charset string) (*Dataset, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(enc.NewDecoder().Reader(r))
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	data := &Dataset{Header: header}
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		line++
		data.Rows = append(data.Rows, models.RawRow{Line: line, Fields: fields})
	}

	return data, nil
}
