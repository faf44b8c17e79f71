package domain

import (
	"fmt"
	"strings"
	"time"
)

// Study is a single bibliographic record to be screened.
type Study struct {
	ID        int64
	FileID    int64
	Title     string
	Authors   string
	Year      int
	Abstract  string
	Journal   string
	URL       string
	DOI       string // optional
	CreatedAt time.Time
}

// Fields returns the study's prompt-visible fields keyed by placeholder name.
func (s *Study) Fields() map[string]string {
	year := ""
	if s.Year != 0 {
		year = fmt.Sprintf("%d", s.Year)
	}
	return map[string]string{
		"title":    s.Title,
		"authors":  s.Authors,
		"year":     year,
		"abstract": s.Abstract,
		"journal":  s.Journal,
		"url":      s.URL,
		"doi":      s.DOI,
	}
}

// ValidateStudy validates a Study before insertion
func ValidateStudy(s *Study) error {
	if s == nil {
		return fmt.Errorf("%w: study cannot be nil", ErrInvalidStudy)
	}

	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidStudy)
	}

	if s.Year <= 0 {
		return fmt.Errorf("%w: year is required", ErrInvalidStudy)
	}

	return nil
}
