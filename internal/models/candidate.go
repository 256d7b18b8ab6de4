package models

import (
	"time"

	"coffeetour/internal/constants"
)

// Candidate is a raw import record handed over by the scraping and
// export-parsing collaborators: an arbitrary bag of whatever fields the
// source happened to expose. It is the input to the merge-aware import
// path, never persisted directly.
type Candidate struct {
	Title            string
	Date             *time.Time
	City             string
	Country          string
	Continent        string
	Latitude         *float64
	Longitude        *float64
	CafeName         string
	Rating           *int
	Notes            string
	Images           []string
	InstagramURL     string
	Published        *bool
	OriginalFilename string
	Extra            map[string]interface{}
}

// ToPost normalizes the candidate into a Post with sentinel defaults for
// missing location fields and published defaulting to true. The hash is
// computed here so fresh inserts and dedup lookups agree on identity.
func (c Candidate) ToPost() *Post {
	post := &Post{
		Title:            c.Title,
		Date:             c.Date,
		City:             defaultUnknown(c.City),
		Country:          defaultUnknown(c.Country),
		Continent:        defaultUnknown(c.Continent),
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		CafeName:         c.CafeName,
		Rating:           c.Rating,
		Notes:            c.Notes,
		Images:           ImageList(c.Images),
		InstagramURL:     c.InstagramURL,
		Published:        true,
		OriginalFilename: c.OriginalFilename,
		Metadata:         MetaMap(c.Extra),
	}
	if c.Published != nil {
		post.Published = *c.Published
	}
	// Partial coordinates are treated as absent.
	if post.Latitude == nil || post.Longitude == nil {
		post.Latitude = nil
		post.Longitude = nil
	}
	post.Hash = post.GenerateHash()
	return post
}

func defaultUnknown(value string) string {
	if value == "" {
		return constants.Unknown
	}
	return value
}
