package bibliography

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRIS = "\ufeffTY  - JOUR\r\n" +
	"AU  - Doe, Jane\r\n" +
	"AU  - Roe, Richard\r\n" +
	"TI  - Pollinator visits in\r\n" +
	"  urban gardens\r\n" +
	"T2  - Urban Ecology\r\n" +
	"PY  - 2019\r\n" +
	"AB  - We counted bees.\r\n" +
	"UR  - https://example.org/a\r\n" +
	"UR  - https://example.org/b\r\n" +
	"DO  - 10.1000/xyz\r\n" +
	"KW  - bees\r\n" +
	"KW  - cities\r\n" +
	"ER  - \r\n" +
	"\r\n" +
	"TY  - BOOK\r\n" +
	"T1  - Second record\r\n" +
	"Y1  - 2001///\r\n" +
	"ER  -\r\n"

func TestReadRIS(t *testing.T) {
	entries, err := ReadRIS(strings.NewReader(sampleRIS))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "JOUR", first["type_of_reference"])
	assert.Equal(t, "Doe, Jane; Roe, Richard", first["authors"])
	assert.Equal(t, "Pollinator visits in urban gardens", first["title"])
	assert.Equal(t, "https://example.org/a", first["urls"])
	assert.Equal(t, "bees; cities", first["KW"])

	study, err := ToStudy(Normalize(first))
	require.NoError(t, err)
	assert.Equal(t, "Urban Ecology", study.Journal)
	assert.Equal(t, 2019, study.Year)
	assert.Equal(t, "10.1000/xyz", study.DOI)
	assert.Equal(t, "https://example.org/a", study.URL)

	second, err := ToStudy(Normalize(entries[1]))
	require.NoError(t, err)
	assert.Equal(t, "Second record", second.Title)
	assert.Equal(t, 2001, second.Year)
}

func TestReadRIS_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"missing ER", "TY  - JOUR\nTI  - x\n", "missing ER"},
		{"ER without TY", "ER  - \n", "ER without TY"},
		{"nested TY", "TY  - JOUR\nTY  - JOUR\n", "record started"},
		{"tag outside record", "TI  - x\n", "outside a record"},
		{"text outside record", "hello\n", "text outside a record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRIS(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
