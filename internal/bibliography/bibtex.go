package bibliography

import (
	"fmt"
	"io"
	"strings"

	"github.com/nickng/bibtex"
)

// ReadBibTeX reads BibTeX entries. @string macros and # concatenations are
// resolved by the parser; braces used for case protection are dropped.
func ReadBibTeX(r io.Reader) ([]Entry, error) {
	bib, err := bibtex.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("bibtex: %w", err)
	}

	entries := make([]Entry, 0, len(bib.Entries))
	for _, e := range bib.Entries {
		entry := Entry{
			"entry_type": strings.ToLower(e.Type),
			"id":         strings.TrimSpace(e.CiteName),
		}
		for key, value := range e.Fields {
			if value == nil {
				continue
			}
			name := strings.ToLower(key)
			text := strings.Join(strings.Fields(stripBraces(value.String())), " ")
			if name == "author" {
				text = strings.Join(splitAuthors(text), "; ")
			}
			entry[name] = text
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func stripBraces(s string) string {
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

func splitAuthors(s string) []string {
	fields := strings.Fields(s)
	var authors []string
	var current []string
	for _, f := range fields {
		if f == "and" {
			if len(current) > 0 {
				authors = append(authors, strings.Join(current, " "))
			}
			current = nil
			continue
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		authors = append(authors, strings.Join(current, " "))
	}
	return authors
}
