package dataset_test

import (
	"testing"

	"github.com/medatlas/geoenrich/internal/dataset"
	"github.com/medatlas/geoenrich/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRow builds a raw row with the mandatory field count, the given
// location and measurements, and every other field empty.
func sampleRow(line int, location, weight, height string) models.RawRow {
	fields := make([]string, dataset.FieldCount)
	fields[0] = location
	fields[1] = weight
	fields[2] = height

	return models.RawRow{Line: line, Fields: fields}
}

func TestExpandRow(t *testing.T) {
	t.Run("single measurement", func(t *testing.T) {
		row := sampleRow(2, "г. Москва, ул. Тверская, 7", "65", "172")
		row.Fields[3] = "1"
		row.Fields[76] = "инсулин"

		records, err := dataset.ExpandRow(row)

		require.NoError(t, err)
		require.Len(t, records, 1)
		rec := records[0]
		assert.Equal(t, "г. Москва, ул. Тверская, 7", rec.Location)
		assert.Equal(t, 65, rec.Weight)
		assert.Equal(t, 172, rec.Height)
		assert.Equal(t, "65", rec.WeightPart)
		assert.Equal(t, "172", rec.HeightPart)
		require.Len(t, rec.RiskFactors, 74)
		assert.True(t, rec.RiskFactors[0], "non-empty field is a present risk factor")
		assert.False(t, rec.RiskFactors[1], "empty field is an absent risk factor")
		assert.True(t, rec.RiskFactors[73])
	})

	t.Run("multi-measurement row expands pairwise", func(t *testing.T) {
		row := sampleRow(3, "г. Пермь", "65,70", "172,175")
		row.Fields[10] = "x"

		records, err := dataset.ExpandRow(row)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 65, records[0].Weight)
		assert.Equal(t, 172, records[0].Height)
		assert.Equal(t, 70, records[1].Weight)
		assert.Equal(t, 175, records[1].Height)
		assert.Equal(t, "70", records[1].WeightPart)

		// Expanded records share the source row and its risk factors.
		assert.Same(t, records[0].Row, records[1].Row)
		assert.Equal(t, records[0].RiskFactors, records[1].RiskFactors)
		assert.Equal(t, records[0].Location, records[1].Location)
	})

	t.Run("every legacy delimiter splits", func(t *testing.T) {
		row := sampleRow(4, "г. Казань", "60/70.80", "160,170,180")

		records, err := dataset.ExpandRow(row)

		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, 60, records[0].Weight)
		assert.Equal(t, 160, records[0].Height)
		assert.Equal(t, 70, records[1].Weight)
		assert.Equal(t, 170, records[1].Height)
		assert.Equal(t, 80, records[2].Weight)
		assert.Equal(t, 180, records[2].Height)
	})

	t.Run("components are trimmed", func(t *testing.T) {
		row := sampleRow(5, "г. Тула", " 65 , 70 ", "172,175")

		records, err := dataset.ExpandRow(row)

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "65", records[0].WeightPart)
		assert.Equal(t, "70", records[1].WeightPart)
	})

	t.Run("wrong field count", func(t *testing.T) {
		short := models.RawRow{Line: 7, Fields: make([]string, dataset.FieldCount-1)}
		long := models.RawRow{Line: 8, Fields: make([]string, dataset.FieldCount+1)}

		_, err := dataset.ExpandRow(short)
		require.ErrorIs(t, err, dataset.ErrFieldCount)

		var rowErr *dataset.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 7, rowErr.Line)

		_, err = dataset.ExpandRow(long)
		require.ErrorIs(t, err, dataset.ErrFieldCount)
	})

	t.Run("empty location", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(9, "", "65", "172"))

		require.ErrorIs(t, err, dataset.ErrEmptyLocation)
	})

	t.Run("component count mismatch", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(10, "г. Омск", "65,70", "172"))

		require.ErrorIs(t, err, dataset.ErrPairMismatch)
	})

	t.Run("empty first component", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(11, "г. Омск", ",65", ",172"))
		require.ErrorIs(t, err, dataset.ErrEmptyMeasurement)

		_, err = dataset.ExpandRow(sampleRow(12, "г. Омск", "", ""))
		require.ErrorIs(t, err, dataset.ErrEmptyMeasurement)
	})

	t.Run("mixed component widths", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(13, "г. Омск", "65,7", "172,175"))

		require.ErrorIs(t, err, dataset.ErrMixedWidths)
	})

	t.Run("trailing delimiter", func(t *testing.T) {
		// "65," splits into "65" and an empty component; the width check
		// rejects the row instead of dropping the stray part.
		_, err := dataset.ExpandRow(sampleRow(14, "г. Омск", "65,", "172,175"))

		require.ErrorIs(t, err, dataset.ErrMixedWidths)
	})

	t.Run("non-numeric component", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(15, "г. Омск", "6x", "172"))
		require.ErrorIs(t, err, dataset.ErrBadNumber)

		_, err = dataset.ExpandRow(sampleRow(16, "г. Омск", "65", "1_2"))
		require.ErrorIs(t, err, dataset.ErrBadNumber)
	})

	t.Run("rejection reports the source line", func(t *testing.T) {
		_, err := dataset.ExpandRow(sampleRow(42, "г. Омск", "65,70", "172"))

		var rowErr *dataset.RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 42, rowErr.Line)
		assert.Contains(t, err.Error(), "row 42")
	})
}
