package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/medatlas/geoenrich/internal/models"
	"golang.org/x/text/transform"
)

// WriteFile writes the enriched dataset to path in the source format, two
// coordinate fields prepended to the header and to every row.
func WriteFile(path, charset string, header []string, records []models.EnrichedRecord) error {
	return writeFile(path, func(file io.Writer) error {
		return Write(file, charset, header, records)
	})
}

// Write emits the enriched rows to w. The header becomes
// "latitude;longitude;<original header>"; each record becomes its
// coordinates (empty when unresolved) followed by the record's fields with
// the original texts.
func Write(w io.Writer, charset string, header []string, records []models.EnrichedRecord) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, enrichedRow(rec))
	}

	head := append([]string{"latitude", "longitude"}, header...)

	return writeRows(w, charset, head, rows)
}

// WriteRawFile writes the header and the given raw rows unchanged. The
// validate-only flow uses it to emit surviving rows without coordinates.
func WriteRawFile(path, charset string, header []string, raw []models.RawRow) error {
	return writeFile(path, func(file io.Writer) error {
		return WriteRaw(file, charset, header, raw)
	})
}

// WriteRaw emits raw rows to w without any enrichment columns.
func WriteRaw(w io.Writer, charset string, header []string, raw []models.RawRow) error {
	rows := make([][]string, 0, len(raw))
	for _, row := range raw {
		rows = append(rows, row.Fields)
	}

	return writeRows(w, charset, header, rows)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFatalIO, path, err)
	}

	if err = write(file); err != nil {
		file.Close()
		return fmt.Errorf("%w: write %s: %v", ErrFatalIO, path, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrFatalIO, path, err)
	}

	return nil
}

func writeRows(w io.Writer, charset string, header []string, rows [][]string) error {
	enc, err := lookupCharset(charset)
	if err != nil {
		return err
	}

	encoded := transform.NewWriter(w, enc.NewEncoder())
	writer := csv.NewWriter(encoded)
	writer.Comma = Delimiter

	if err = writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, fields := range rows {
		if err = writer.Write(fields); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}

	return encoded.Close()
}

// enrichedRow rebuilds one output row: coordinates, the location, the
// measurement pair this record was expanded from, then the untouched
// risk-factor fields of the source row.
func enrichedRow(rec models.EnrichedRecord) []string {
	fields := make([]string, 0, len(rec.Row.Fields)+2)

	if rec.Resolved {
		fields = append(fields,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		)
	} else {
		fields = append(fields, "", "")
	}

	fields = append(fields, rec.Location, rec.WeightPart, rec.HeightPart)
	fields = append(fields, rec.Row.Fields[heightField+1:]...)

	return fields
}
