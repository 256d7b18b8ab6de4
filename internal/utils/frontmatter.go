package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coffeetour/internal/constants"
	"coffeetour/internal/models"

	"gopkg.in/yaml.v3"
)

var frontMatterRegex = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n?`)

// yamlReservedWords must be quoted or they change type under a YAML parser.
var yamlReservedWords = map[string]bool{
	"true": true, "false": true, "null": true,
	"yes": true, "no": true, "on": true, "off": true,
}

// YAMLSafeString renders a string value for the front matter block,
// quoting and escaping whenever the raw text could confuse a YAML parser.
func YAMLSafeString(text string) string {
	if text == "" {
		return `""`
	}

	cleaned := smartPunctuationReplacer.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return `""`
	}

	if needsQuoting(cleaned) {
		escaped := strings.ReplaceAll(cleaned, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	}
	return cleaned
}

func needsQuoting(text string) bool {
	if strings.ContainsAny(text[:1], "%@`|>#-?:[{]},&*!'\"") {
		return true
	}
	if strings.HasSuffix(text, ":") {
		return true
	}
	if strings.ContainsAny(text, ":\n\"'") {
		return true
	}
	if yamlReservedWords[strings.ToLower(text)] {
		return true
	}
	if looksNumeric(text) {
		return true
	}
	if strings.TrimSpace(text) != text {
		return true
	}
	for _, r := range text {
		if r > 127 {
			return true
		}
		if r < 32 && r != '\n' && r != '\t' {
			return true
		}
	}
	return false
}

func looksNumeric(text string) bool {
	stripped := strings.NewReplacer(".", "", "-", "").Replace(text)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RenderFrontMatter serializes a record into the fixed-order front matter
// block. The field order is part of the on-disk contract: layout, title,
// date, city, country, continent, latitude, longitude, cafe_name, rating,
// notes, images, instagram_url, published. Optional fields are omitted
// entirely when absent rather than emitted as nulls.
func RenderFrontMatter(post *models.Post) string {
	lines := []string{"---"}

	lines = append(lines, "layout: "+constants.PostLayout)
	lines = append(lines, "title: "+YAMLSafeString(post.Title))
	if post.Date != nil {
		lines = append(lines, "date: "+post.DateString())
	}
	lines = append(lines, "city: "+YAMLSafeString(post.City))
	lines = append(lines, "country: "+YAMLSafeString(post.Country))
	lines = append(lines, "continent: "+YAMLSafeString(post.Continent))
	if post.HasCoordinates() {
		lines = append(lines, "latitude: "+formatFloat(*post.Latitude))
		lines = append(lines, "longitude: "+formatFloat(*post.Longitude))
	}
	if post.CafeName != "" {
		lines = append(lines, "cafe_name: "+YAMLSafeString(post.CafeName))
	}
	if post.Rating != nil {
		lines = append(lines, "rating: "+strconv.Itoa(*post.Rating))
	}
	if post.Notes != "" {
		lines = append(lines, "notes: "+YAMLSafeString(post.Notes))
	}
	if len(post.Images) > 0 {
		lines = append(lines, "images:")
		for _, image := range post.Images {
			lines = append(lines, "  - "+YAMLSafeString(image))
		}
	}
	if post.InstagramURL != "" {
		lines = append(lines, "instagram_url: "+YAMLSafeString(post.InstagramURL))
	}
	lines = append(lines, "published: "+strconv.FormatBool(post.Published))

	lines = append(lines, "---")
	return strings.Join(lines, "\n") + "\n"
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// FrontMatter is the parsed form of a generated (or hand-edited) post
// file's metadata block, used when re-importing files into the store.
type FrontMatter struct {
	Layout       string      `yaml:"layout"`
	Title        string      `yaml:"title"`
	Date         interface{} `yaml:"date"` // bare dates may parse as string or time.Time
	City         string      `yaml:"city"`
	Country      string      `yaml:"country"`
	Continent    string      `yaml:"continent"`
	Latitude     *float64    `yaml:"latitude"`
	Longitude    *float64    `yaml:"longitude"`
	CafeName     string      `yaml:"cafe_name"`
	Rating       *int        `yaml:"rating"`
	Notes        string      `yaml:"notes"`
	Images       []string    `yaml:"images"`
	ImageURL     string      `yaml:"image_url"`
	InstagramURL string      `yaml:"instagram_url"`
	Published    *bool       `yaml:"published"`
}

// ParsedDate normalizes the loosely typed date field.
func (f *FrontMatter) ParsedDate() *time.Time {
	switch v := f.Date.(type) {
	case string:
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	}
	return nil
}

// ParseFrontMatter splits a post file into its metadata block and body.
func ParseFrontMatter(content string) (*FrontMatter, string, error) {
	matches := frontMatterRegex.FindStringSubmatch(content)
	if len(matches) < 2 {
		return nil, "", fmt.Errorf("no front matter block found")
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, "", fmt.Errorf("unmarshal front matter: %w", err)
	}

	body := strings.TrimSpace(content[len(matches[0]):])
	return &fm, body, nil
}
