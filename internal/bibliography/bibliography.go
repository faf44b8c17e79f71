// Package bibliography reads RIS and BibTeX exports into studies.
package bibliography

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fdecunta/screenie/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// Entry is one bibliographic record with reader-specific field names.
type Entry map[string]string

// fieldNames maps canonical study fields to the names readers may produce.
var fieldNames = map[string][]string{
	"authors":  {"author", "authors", "first_authors"},
	"title":    {"title", "article_title", "primary_title"},
	"year":     {"year", "publication_year", "pub_year"},
	"abstract": {"abstract", "summary"},
	"journal":  {"journal", "journal_name", "secondary_title"},
	"doi":      {"doi"},
	"url":      {"url", "link", "urls"},
}

// NormalizeFieldName returns the canonical study field for a raw name, or the
// raw name unchanged when it is not recognized.
func NormalizeFieldName(raw string) string {
	if canonical, ok := canonicalField(raw); ok {
		return canonical
	}
	return raw
}

func canonicalField(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	for canonical, names := range fieldNames {
		if slices.Contains(names, lower) {
			return canonical, true
		}
	}
	return "", false
}

// Normalize renames the entry's fields to canonical names. When several raw
// fields map to the same name, the first non-empty one in fieldNames order
// wins. Unrecognized fields are kept as they are.
func Normalize(e Entry) Entry {
	out := make(Entry, len(e))
	byName := make(map[string]string, len(e))
	for name, value := range e {
		if _, ok := canonicalField(name); !ok {
			out[name] = value
			continue
		}
		byName[strings.ToLower(name)] = value
	}

	for canonical, names := range fieldNames {
		for _, name := range names {
			if v := byName[name]; strings.TrimSpace(v) != "" {
				out[canonical] = v
				break
			}
		}
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// Clean applies NFKC normalization and collapses whitespace.
func Clean(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(norm.NFKC.String(s), " "))
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// ToStudy converts a normalized entry into a study.
func ToStudy(e Entry) (*domain.Study, error) {
	s := &domain.Study{
		Title:    Clean(e["title"]),
		Authors:  Clean(e["authors"]),
		Abstract: Clean(e["abstract"]),
		Journal:  Clean(e["journal"]),
		URL:      Clean(e["url"]),
		DOI:      Clean(e["doi"]),
	}

	if y := yearPattern.FindString(e["year"]); y != "" {
		s.Year, _ = strconv.Atoi(y)
	}

	if err := domain.ValidateStudy(s); err != nil {
		return nil, err
	}
	return s, nil
}

// EntryError describes an entry that could not become a study.
type EntryError struct {
	Index int
	Title string
	Err   error
}

func (e *EntryError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("entry %d (%q): %v", e.Index+1, e.Title, e.Err)
	}
	return fmt.Sprintf("entry %d: %v", e.Index+1, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Parse reads a bibliography file, picking the reader from the file
// extension. Entries that fail validation are returned as EntryErrors and do
// not abort the import.
func Parse(name string, data []byte) ([]*domain.Study, []*EntryError, error) {
	var entries []Entry
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".ris":
		entries, err = ReadRIS(bytes.NewReader(data))
	case ".bib":
		entries, err = ReadBibTeX(bytes.NewReader(data))
	default:
		return nil, nil, fmt.Errorf("%w: %q (only .bib and .ris are supported)", domain.ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, nil, err
	}

	var studies []*domain.Study
	var invalid []*EntryError
	for i, entry := range entries {
		normalized := Normalize(entry)
		s, err := ToStudy(normalized)
		if err != nil {
			invalid = append(invalid, &EntryError{Index: i, Title: Clean(normalized["title"]), Err: err})
			continue
		}
		studies = append(studies, s)
	}

	return studies, invalid, nil
}
