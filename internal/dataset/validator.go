package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/medatlas/geoenrich/internal/models"
)

// FieldCount is the exact number of fields a valid source row carries:
// location, weight, height and the risk-factor columns.
const FieldCount = 77

// Positions of the named fields in a source row. Everything after the height
// field is a risk-factor column.
const (
	locationField = 0
	weightField   = 1
	heightField   = 2
)

// partDelim splits multi-measurement fields. The split keeps empty
// components so a stray delimiter ("10,") fails validation instead of
// silently vanishing.
var partDelim = regexp.MustCompile(`[,/.]`)

// ExpandRow validates one raw row and expands it into normalized records,
// one per weight/height component pair. Components of a multi-measurement
// field must be equal in number in both fields and uniform in width within
// each field; mixed widths signal a mis-keyed series ("10,5" next to
// "10,05") and reject the whole row.
//
// A rejected row yields a *RowError for the caller to record; rejection of
// one row never affects any other row.
func ExpandRow(row models.RawRow) ([]models.Record, error) {
	if len(row.Fields) != FieldCount {
		return nil, rowError(row, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(row.Fields), FieldCount))
	}

	location := row.Fields[locationField]
	if location == "" {
		return nil, rowError(row, ErrEmptyLocation)
	}

	weights := splitParts(row.Fields[weightField])
	heights := splitParts(row.Fields[heightField])

	if len(weights) != len(heights) {
		return nil, rowError(row, fmt.Errorf("%w: %d weights, %d heights", ErrPairMismatch, len(weights), len(heights)))
	}
	if weights[0] == "" || heights[0] == "" {
		return nil, rowError(row, ErrEmptyMeasurement)
	}
	if mixedWidths(weights) {
		return nil, rowError(row, fmt.Errorf("%w: weight %q", ErrMixedWidths, row.Fields[weightField]))
	}
	if mixedWidths(heights) {
		return nil, rowError(row, fmt.Errorf("%w: height %q", ErrMixedWidths, row.Fields[heightField]))
	}

	risks := make([]bool, 0, FieldCount-heightField-1)
	for _, field := range row.Fields[heightField+1:] {
		risks = append(risks, field != "")
	}

	src := row
	records := make([]models.Record, 0, len(weights))
	for i := range weights {
		weight, err := strconv.Atoi(weights[i])
		if err != nil {
			return nil, rowError(row, fmt.Errorf("%w: weight %q", ErrBadNumber, weights[i]))
		}
		height, err := strconv.Atoi(heights[i])
		if err != nil {
			return nil, rowError(row, fmt.Errorf("%w: height %q", ErrBadNumber, heights[i]))
		}

		records = append(records, models.Record{
			Row:         &src,
			Location:    location,
			Weight:      weight,
			Height:      height,
			WeightPart:  weights[i],
			HeightPart:  heights[i],
			RiskFactors: risks,
		})
	}

	return records, nil
}

func rowError(row models.RawRow, err error) *RowError {
	return &RowError{Line: row.Line, Err: err}
}

// splitParts splits a measurement field on the legacy delimiters and trims
// each component.
func splitParts(field string) []string {
	parts := partDelim.Split(field, -1)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// mixedWidths reports whether the components differ in string length.
func mixedWidths(parts []string) bool {
	for _, part := range parts[1:] {
		if len(part) != len(parts[0]) {
			return true
		}
	}
	return false
}
