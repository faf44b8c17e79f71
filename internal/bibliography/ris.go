package bibliography

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var risLine = regexp.MustCompile(`^([A-Z][A-Z0-9])  -(?: (.*))?$`)

// risFields maps RIS tags to entry field names. Tags absent here are kept
// under their tag.
var risFields = map[string]string{
	"TY": "type_of_reference",
	"TI": "title",
	"T1": "primary_title",
	"AU": "authors",
	"A1": "first_authors",
	"PY": "year",
	"Y1": "publication_year",
	"AB": "abstract",
	"N2": "summary",
	"JO": "journal",
	"JF": "journal_name",
	"T2": "secondary_title",
	"UR": "urls",
	"DO": "doi",
}

// repeatable tags are joined instead of keeping the first value
var risJoined = map[string]string{
	"AU": "; ",
	"A1": "; ",
	"KW": "; ",
}

// ReadRIS reads RIS records. Each record starts with a TY tag and ends with
// ER. Lines without a tag continue the previous field.
func ReadRIS(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var entries []Entry
	var current Entry
	var lastField string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := risLine.FindStringSubmatch(line)
		if m == nil {
			if current == nil {
				return nil, fmt.Errorf("ris: line %d: text outside a record", lineNo)
			}
			if lastField != "" {
				current[lastField] += " " + strings.TrimSpace(line)
			}
			continue
		}

		tag, value := m[1], strings.TrimSpace(m[2])
		switch tag {
		case "TY":
			if current != nil {
				return nil, fmt.Errorf("ris: line %d: record started before previous ended", lineNo)
			}
			current = Entry{}
		case "ER":
			if current == nil {
				return nil, fmt.Errorf("ris: line %d: ER without TY", lineNo)
			}
			entries = append(entries, current)
			current = nil
			lastField = ""
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("ris: line %d: tag %s outside a record", lineNo, tag)
		}

		field, ok := risFields[tag]
		if !ok {
			field = tag
		}
		lastField = field

		existing, seen := current[field]
		switch {
		case !seen:
			current[field] = value
		case risJoined[tag] != "":
			current[field] = existing + risJoined[tag] + value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ris: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("ris: last record is missing ER")
	}

	return entries, nil
}
