package domain

import "time"

// Recipe is a registered recipe. Content is the canonical serialization of
// the validated recipe and is never mutated once stored.
type Recipe struct {
	ID        int64
	FileID    int64
	Content   string
	CreatedAt time.Time
}
