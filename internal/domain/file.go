package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// SourceFile is the raw content of an imported bibliography or recipe file.
// Two files with identical bytes share one row regardless of name.
type SourceFile struct {
	ID        int64
	Name      string
	SHA256    string
	Content   []byte
	CreatedAt time.Time
}

// NewSourceFile builds a SourceFile and computes its content digest.
func NewSourceFile(name string, content []byte) *SourceFile {
	return &SourceFile{
		Name:    name,
		SHA256:  ContentDigest(content),
		Content: content,
	}
}

// ContentDigest returns the hex-encoded SHA-256 of content.
func ContentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// StorageKey is the object key used when archiving the file.
func (f *SourceFile) StorageKey() string {
	return "files/" + f.SHA256
}
