package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudy_Fields(t *testing.T) {
	s := &Study{
		Title:    "Pollinator decline",
		Authors:  "Doe, J.; Roe, R.",
		Year:     2021,
		Abstract: "We measured bees.",
		Journal:  "Ecology",
		URL:      "https://example.org/a",
	}

	fields := s.Fields()
	assert.Equal(t, "Pollinator decline", fields["title"])
	assert.Equal(t, "2021", fields["year"])
	assert.Equal(t, "", fields["doi"])
	assert.Len(t, fields, 7)
}

func TestValidateStudy(t *testing.T) {
	tests := []struct {
		name    string
		study   *Study
		wantErr bool
		errMsg  string
	}{
		{"valid study", &Study{Title: "T", Year: 2020}, false, ""},
		{"nil study", nil, true, "nil"},
		{"missing title", &Study{Title: "  ", Year: 2020}, true, "title"},
		{"missing year", &Study{Title: "T"}, true, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStudy(tt.study)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStudy)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSourceFile(t *testing.T) {
	f := NewSourceFile("refs.ris", []byte("TY  - JOUR\n"))
	assert.Equal(t, "refs.ris", f.Name)
	assert.Len(t, f.SHA256, 64)
	assert.Equal(t, "files/"+f.SHA256, f.StorageKey())

	same := NewSourceFile("renamed.ris", []byte("TY  - JOUR\n"))
	assert.Equal(t, f.SHA256, same.SHA256)
}
