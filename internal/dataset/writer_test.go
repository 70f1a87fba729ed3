package dataset_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/medatlas/geoenrich/internal/dataset"
	"github.com/medatlas/geoenrich/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func sampleHeader() []string {
	header := make([]string, dataset.FieldCount)
	header[0], header[1], header[2] = "address", "weight", "height"

	return header
}

func expandOne(t *testing.T, row models.RawRow) []models.Record {
	t.Helper()

	records, err := dataset.ExpandRow(row)
	require.NoError(t, err)

	return records
}

func TestWrite(t *testing.T) {
	t.Run("prepends coordinates", func(t *testing.T) {
		records := expandOne(t, sampleRow(2, "г. Москва, ул. Тверская, 7", "65", "172"))
		enriched := []models.EnrichedRecord{{
			Record: records[0],
			Resolution: models.Resolution{
				Latitude:  55.7558,
				Longitude: 37.6173,
				Provider:  "yandex",
				Resolved:  true,
			},
		}}

		var buf bytes.Buffer
		err := dataset.Write(&buf, "windows-1251", sampleHeader(), enriched)
		require.NoError(t, err)

		decoded, err := charmap.Windows1251.NewDecoder().String(buf.String())
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(decoded, "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "latitude;longitude;address;weight;height"+strings.Repeat(";", 74), lines[0])
		assert.Equal(t, "55.7558;37.6173;г. Москва, ул. Тверская, 7;65;172"+strings.Repeat(";", 74), lines[1])
	})

	t.Run("unresolved records keep empty coordinates", func(t *testing.T) {
		records := expandOne(t, sampleRow(2, "с. Неизвестное", "70", "180"))
		enriched := []models.EnrichedRecord{{Record: records[0]}}

		var buf bytes.Buffer
		err := dataset.Write(&buf, "windows-1251", sampleHeader(), enriched)
		require.NoError(t, err)

		decoded, err := charmap.Windows1251.NewDecoder().String(buf.String())
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(decoded, "\n"), "\n")
		require.Len(t, lines, 2)
		assert.True(t, strings.HasPrefix(lines[1], ";;с. Неизвестное;70;180"))
	})

	t.Run("expanded records carry their own measurement pair", func(t *testing.T) {
		records := expandOne(t, sampleRow(2, "г. Пермь", "60,62", "170,171"))
		enriched := []models.EnrichedRecord{
			{Record: records[0], Resolution: models.Resolution{Latitude: 58.01, Longitude: 56.25, Resolved: true}},
			{Record: records[1], Resolution: models.Resolution{Latitude: 58.01, Longitude: 56.25, Resolved: true}},
		}

		var buf bytes.Buffer
		err := dataset.Write(&buf, "windows-1251", sampleHeader(), enriched)
		require.NoError(t, err)

		decoded, err := charmap.Windows1251.NewDecoder().String(buf.String())
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(decoded, "\n"), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[1], "58.01;56.25;г. Пермь;60;170"))
		assert.True(t, strings.HasPrefix(lines[2], "58.01;56.25;г. Пермь;62;171"))
	})
}

func TestWriteRaw(t *testing.T) {
	row := sampleRow(2, "г. Омск", "65", "172")

	var buf bytes.Buffer
	err := dataset.WriteRaw(&buf, "windows-1251", sampleHeader(), []models.RawRow{row})
	require.NoError(t, err)

	decoded, err := charmap.Windows1251.NewDecoder().String(buf.String())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(decoded, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(row.Fields, ";"), lines[1])
}

func TestWriteFile(t *testing.T) {
	defer filet.CleanUp(t)

	t.Run("writes the enriched dataset", func(t *testing.T) {
		dir := filet.TmpDir(t, "")
		path := filepath.Join(dir, "enriched.csv")
		records := expandOne(t, sampleRow(2, "Moscow", "65", "172"))
		enriched := []models.EnrichedRecord{{
			Record:     records[0],
			Resolution: models.Resolution{Latitude: 55.75, Longitude: 37.62, Resolved: true},
		}}

		err := dataset.WriteFile(path, dataset.DefaultCharset, sampleHeader(), enriched)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "latitude;longitude;address"))
		assert.Contains(t, string(content), "55.75;37.62;Moscow;65;172")
	})

	t.Run("unwritable path is fatal", func(t *testing.T) {
		err := dataset.WriteFile("no/such/dir/out.csv", dataset.DefaultCharset, sampleHeader(), nil)

		require.ErrorIs(t, err, dataset.ErrFatalIO)
	})
}
