package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"coffeetour/internal/constants"
	"coffeetour/internal/logger"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
	"coffeetour/internal/utils"
)

// ImportService feeds candidate records from the various sources (Instagram
// data exports, previously generated markdown files, ad-hoc API submissions)
// through the merge-aware upsert path.
type ImportService struct {
	repo *repository.PostRepository
}

func NewImportService(repo *repository.PostRepository) *ImportService {
	return &ImportService{repo: repo}
}

// ImportStats counts what one import run did.
type ImportStats struct {
	Inserted  int `json:"inserted"`
	Merged    int `json:"merged"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// BuildMergeUpdate computes the field updates for folding an incoming
// record into an existing one with the same fingerprint. Curated fields
// are preserved: an incoming value only lands where the existing record
// holds a sentinel or nothing. An empty map means nothing to do.
func BuildMergeUpdate(existing, incoming *models.Post) map[string]interface{} {
	fields := make(map[string]interface{})

	if isPlaceholderCafe(existing.CafeName) && !isPlaceholderCafe(incoming.CafeName) {
		fields["cafe_name"] = incoming.CafeName
	}
	if models.IsSentinel(existing.City) && !models.IsSentinel(incoming.City) {
		fields["city"] = incoming.City
	}
	if models.IsSentinel(existing.Country) && !models.IsSentinel(incoming.Country) {
		fields["country"] = incoming.Country
	}
	if models.IsSentinel(existing.Continent) && !models.IsSentinel(incoming.Continent) {
		fields["continent"] = incoming.Continent
	}
	// Coordinates travel as a pair.
	if !existing.HasCoordinates() && incoming.HasCoordinates() {
		fields["latitude"] = *incoming.Latitude
		fields["longitude"] = *incoming.Longitude
	}
	if existing.Rating == nil && incoming.Rating != nil {
		fields["rating"] = *incoming.Rating
	}
	if strings.TrimSpace(existing.Notes) == "" && strings.TrimSpace(incoming.Notes) != "" {
		fields["notes"] = incoming.Notes
	}
	// Image lists are backfilled only into an empty slot, never merged
	// element-wise.
	if len(existing.Images) == 0 && len(incoming.Images) > 0 {
		fields["images"] = incoming.Images
	}
	if existing.Title == "" && incoming.Title != "" {
		fields["title"] = incoming.Title
	}
	if existing.Date == nil && incoming.Date != nil {
		fields["date"] = incoming.Date
	}
	if existing.InstagramURL == "" && incoming.InstagramURL != "" {
		fields["instagram_url"] = incoming.InstagramURL
	}
	if len(existing.Metadata) == 0 && len(incoming.Metadata) > 0 {
		fields["metadata"] = incoming.Metadata
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
	}
	return fields
}

func isPlaceholderCafe(name string) bool {
	if constants.CafeNamePlaceholders[strings.TrimSpace(name)] {
		return true
	}
	return models.IsSentinel(name)
}

// ImportCandidate routes one candidate into the store: insert when its
// fingerprint is new, otherwise gap-fill the existing record. The action
// is one of "inserted", "merged", "unchanged".
func (s *ImportService) ImportCandidate(candidate models.Candidate) (uint, string, error) {
	incoming := candidate.ToPost()

	existing, err := s.repo.FindByHash(incoming.Hash)
	if err != nil {
		return 0, "", err
	}
	if existing == nil {
		if err := s.repo.Create(incoming); err != nil {
			return 0, "", err
		}
		return incoming.ID, "inserted", nil
	}

	fields := BuildMergeUpdate(existing, incoming)
	if len(fields) == 0 {
		return existing.ID, "unchanged", nil
	}
	if err := s.repo.UpdateFields(existing.ID, fields); err != nil {
		return 0, "", err
	}
	return existing.ID, "merged", nil
}

type exportMedia struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp"`
	Title             string `json:"title"`
}

type exportPost struct {
	Media             []exportMedia `json:"media"`
	Title             string        `json:"title"`
	CreationTimestamp int64         `json:"creation_timestamp"`
}

var coffeeKeywords = []string{
	"coffee", "cafe", "café", "espresso", "latte", "cappuccino",
	"flat white", "cortado", "brew", "roast", "barista",
}

var (
	mentionRegex = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)
	atCafeRegex  = regexp.MustCompile(`(?:at|At|in|In)\s+([A-Z][A-Za-z'&]*(?:\s+[A-Z][A-Za-z'&]*){0,3})`)
)

// ProcessExportFile imports an Instagram data-export posts file
// (posts_1.json). Non-coffee posts are skipped by keyword filter.
func (s *ImportService) ProcessExportFile(path string) (*ImportStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	var posts []exportPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("parse export file: %w", err)
	}

	stats := &ImportStats{}
	for _, entry := range posts {
		caption := entry.Title
		timestamp := entry.CreationTimestamp
		if caption == "" && len(entry.Media) > 0 {
			caption = entry.Media[0].Title
		}
		if timestamp == 0 && len(entry.Media) > 0 {
			timestamp = entry.Media[0].CreationTimestamp
		}
		caption = utils.CleanText(caption)

		if !isCoffeePost(caption) {
			stats.Skipped++
			continue
		}

		candidate := models.Candidate{
			Title:    captionTitle(caption),
			Notes:    caption,
			CafeName: guessCafeName(caption),
		}
		if timestamp > 0 {
			date := time.Unix(timestamp, 0).UTC()
			candidate.Date = &date
		}
		for _, media := range entry.Media {
			if media.URI == "" {
				continue
			}
			candidate.Images = append(candidate.Images,
				"/assets/images/posts/"+filepath.Base(media.URI))
		}

		_, action, err := s.ImportCandidate(candidate)
		if err != nil {
			logger.Errorw("import_export_entry_failed", "title", candidate.Title, "error", err)
			stats.Errors++
			continue
		}
		stats.count(action)
	}

	logger.Infow("export_import_done", "path", path,
		"inserted", stats.Inserted, "merged", stats.Merged,
		"unchanged", stats.Unchanged, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

func (s *ImportStats) count(action string) {
	switch action {
	case "inserted":
		s.Inserted++
	case "merged":
		s.Merged++
	case "unchanged":
		s.Unchanged++
	}
}

func isCoffeePost(caption string) bool {
	lower := strings.ToLower(caption)
	for _, keyword := range coffeeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// captionTitle takes the first line of the caption as the post title.
func captionTitle(caption string) string {
	line := caption
	if idx := strings.IndexByte(caption, '\n'); idx >= 0 {
		line = caption[:idx]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return line
}

// guessCafeName extracts a likely cafe name from the caption, preferring
// an @mention over a capitalized phrase after "at"/"in".
func guessCafeName(caption string) string {
	if match := mentionRegex.FindStringSubmatch(caption); match != nil {
		name := strings.ReplaceAll(match[1], "_", " ")
		name = strings.ReplaceAll(name, ".", " ")
		return strings.TrimSpace(name)
	}
	if match := atCafeRegex.FindStringSubmatch(caption); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// ImportMarkdownDir re-imports previously generated post files, letting
// hand-edits in the files flow back into the store.
func (s *ImportService) ImportMarkdownDir(dir string) (*ImportStats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}

	stats := &ImportStats{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Errorw("read_post_file_failed", "file", entry.Name(), "error", err)
			stats.Errors++
			continue
		}

		fm, body, err := utils.ParseFrontMatter(string(content))
		if err != nil {
			logger.Warnw("skip_post_file", "file", entry.Name(), "error", err)
			stats.Skipped++
			continue
		}

		candidate := candidateFromFrontMatter(fm, body)
		candidate.OriginalFilename = entry.Name()

		_, action, err := s.ImportCandidate(candidate)
		if err != nil {
			logger.Errorw("import_post_file_failed", "file", entry.Name(), "error", err)
			stats.Errors++
			continue
		}
		stats.count(action)
	}

	logger.Infow("markdown_import_done", "dir", dir,
		"inserted", stats.Inserted, "merged", stats.Merged,
		"unchanged", stats.Unchanged, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

func candidateFromFrontMatter(fm *utils.FrontMatter, body string) models.Candidate {
	candidate := models.Candidate{
		Title:        fm.Title,
		Date:         fm.ParsedDate(),
		City:         fm.City,
		Country:      fm.Country,
		Continent:    fm.Continent,
		Latitude:     fm.Latitude,
		Longitude:    fm.Longitude,
		CafeName:     fm.CafeName,
		Rating:       fm.Rating,
		Notes:        fm.Notes,
		Images:       fm.Images,
		InstagramURL: fm.InstagramURL,
		Published:    fm.Published,
	}
	if candidate.Notes == "" {
		candidate.Notes = body
	}
	if len(candidate.Images) == 0 && fm.ImageURL != "" {
		candidate.Images = []string{fm.ImageURL}
	}
	return candidate
}
