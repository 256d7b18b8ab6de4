package models

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"coffeetour/internal/constants"
	"coffeetour/internal/logger"
)

// Post is one coffee post record. The database is the single source of
// truth for all post data; generated markdown files are a pure projection.
type Post struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	Hash             string     `gorm:"uniqueIndex;not null" json:"hash"`
	Title            string     `json:"title"`
	Date             *time.Time `gorm:"index" json:"date"`
	City             string     `gorm:"index" json:"city"`
	Country          string     `gorm:"index" json:"country"`
	Continent        string     `gorm:"index" json:"continent"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	CafeName         string     `json:"cafe_name"`
	Rating           *int       `json:"rating"`
	Notes            string     `gorm:"type:text" json:"notes"`
	Images           ImageList  `gorm:"type:text" json:"images"`
	InstagramURL     string     `json:"instagram_url"`
	// No column default: gorm would treat an explicit false as unset and
	// write the default instead. Candidate.ToPost owns the true default.
	Published        bool       `gorm:"index" json:"published"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	OriginalFilename string     `json:"original_filename"`
	Metadata         MetaMap    `gorm:"type:text" json:"metadata"`
}

// GenerateHash derives the content fingerprint used to detect re-imports
// of the same logical post. Field order matters: the most distinguishing
// content (title, then date, then notes, then first image) dominates
// identity. Must stay pure apart from the empty-record fallback.
func (p *Post) GenerateHash() string {
	var parts []string

	if p.Title != "" {
		parts = append(parts, truncateRunes(p.Title, 50))
	}
	if p.Date != nil {
		parts = append(parts, p.DateString())
	}
	if p.Notes != "" {
		parts = append(parts, truncateRunes(p.Notes, 50))
	}
	if len(p.Images) > 0 {
		parts = append(parts, p.Images[0])
	}

	// Completely empty record: fall back to wall-clock time so it still
	// gets a usable, if not deduplicatable, identity.
	if len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(time.Now().UnixNano(), 10))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// DateString renders the calendar date the way it appears in front matter
// and in the fingerprint. Empty when the date is unknown.
func (p *Post) DateString() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Format("2006-01-02")
}

// HasCoordinates reports whether both coordinates are present. A partial
// pair is treated as absent everywhere.
func (p *Post) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// IsComplete reports whether every field required for publication holds a
// real, non-sentinel value.
func (p *Post) IsComplete() bool {
	return p.Date != nil &&
		!IsSentinel(p.CafeName) &&
		!IsSentinel(p.City) &&
		!IsSentinel(p.Country) &&
		!IsSentinel(p.Continent) &&
		p.HasCoordinates()
}

// ShouldPublish gates derived-file generation: the record must be flagged
// published and complete. Incomplete records stay in the database but
// produce no file.
func (p *Post) ShouldPublish() bool {
	return p.Published && p.IsComplete()
}

// IsSentinel reports whether a text field carries no real information.
func IsSentinel(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, constants.Unknown)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

// ImageList is an ordered list of image references stored as a JSON array
// in a text column.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan tolerates corrupt encodings: a record with a broken image list is
// loaded with an empty list instead of aborting the whole scan.
func (l *ImageList) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		*l = ImageList{}
		return nil
	}
	var images []string
	if err := json.Unmarshal(raw, &images); err != nil {
		logger.Warnw("invalid_images_encoding", "raw", string(raw), "error", err)
		*l = ImageList{}
		return nil
	}
	*l = images
	return nil
}

// MetaMap is the open key/value bag for fields outside the core schema,
// stored as a JSON object in a text column.
type MetaMap map[string]interface{}

func (m MetaMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *MetaMap) Scan(value interface{}) error {
	raw, ok := asBytes(value)
	if !ok || len(raw) == 0 {
		*m = nil
		return nil
	}
	var bag map[string]interface{}
	if err := json.Unmarshal(raw, &bag); err != nil {
		logger.Warnw("invalid_metadata_encoding", "raw", string(raw), "error", err)
		*m = nil
		return nil
	}
	*m = bag
	return nil
}

func asBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return []byte(fmt.Sprint(v)), true
	}
}
