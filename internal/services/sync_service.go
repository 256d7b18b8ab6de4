package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coffeetour/internal/logger"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
	"coffeetour/internal/utils"

	"github.com/gosimple/slug"
)

// SyncService projects the database onto the posts directory. Files are a
// pure derivation: the synchronizer may create, rewrite, or delete any
// file in the directory, and a full sync always converges the directory
// to exactly the publishable records.
type SyncService struct {
	repo     *repository.PostRepository
	postsDir string
}

func NewSyncService(repo *repository.PostRepository, postsDir string) *SyncService {
	return &SyncService{repo: repo, postsDir: postsDir}
}

// SyncResult counts what one sync run did to the directory.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Errors    int `json:"errors"`
}

const maxSlugLength = 50

// GenerateFilename derives the post's target filename and reserves it in
// taken. Collisions within a run get a numeric disambiguator; because the
// caller iterates posts in ascending ID order, disambiguators are stable
// across runs.
func GenerateFilename(post *models.Post, taken map[string]bool) string {
	base := slug.Make(post.Title)
	if len(base) > maxSlugLength {
		base = strings.Trim(base[:maxSlugLength], "-")
	}
	if base == "" {
		base = "untitled"
	}

	name := fmt.Sprintf("%s-%s.md", post.DateString(), base)
	counter := 2
	for taken[name] {
		name = fmt.Sprintf("%s-%s-%d.md", post.DateString(), base, counter)
		counter++
	}
	taken[name] = true
	return name
}

// BuildContent renders the full post file: the front matter block, a blank
// line, then the body.
func BuildContent(post *models.Post) string {
	body := utils.CleanText(strings.TrimSpace(post.Notes))
	if body == "" {
		body = fmt.Sprintf("Coffee post from %s, %s.", post.City, post.Country)
	}
	return utils.RenderFrontMatter(post) + "\n" + body + "\n"
}

// Sync converges the posts directory to the publishable records. Existing
// files are only rewritten when their content differs, orphaned files are
// removed, and each post's recorded filename is kept current.
func (s *SyncService) Sync() (*SyncResult, error) {
	if err := os.MkdirAll(s.postsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create posts dir: %w", err)
	}

	posts, err := s.repo.FindAllOrdered()
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	taken := make(map[string]bool)
	expected := make(map[string]bool)

	for i := range posts {
		post := &posts[i]
		if !post.ShouldPublish() {
			continue
		}

		filename := GenerateFilename(post, taken)
		expected[filename] = true
		content := BuildContent(post)
		path := filepath.Join(s.postsDir, filename)

		current, readErr := os.ReadFile(path)
		switch {
		case readErr != nil:
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				logger.Errorw("write_post_file_failed", "file", filename, "error", err)
				result.Errors++
				continue
			}
			result.Created++
		case string(current) != content:
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				logger.Errorw("write_post_file_failed", "file", filename, "error", err)
				result.Errors++
				continue
			}
			result.Updated++
		default:
			result.Unchanged++
		}

		if post.OriginalFilename != filename {
			// A renamed post leaves its old file behind as an orphan; the
			// removal pass below collects it.
			if err := s.repo.UpdateFields(post.ID, map[string]interface{}{
				"original_filename": filename,
			}); err != nil {
				logger.Errorw("record_filename_failed", "id", post.ID, "error", err)
				result.Errors++
			}
		}
	}

	entries, err := os.ReadDir(s.postsDir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || expected[name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.postsDir, name)); err != nil {
			logger.Errorw("remove_orphan_failed", "file", name, "error", err)
			result.Errors++
			continue
		}
		result.Removed++
	}

	logger.Infow("sync_done", "dir", s.postsDir,
		"created", result.Created, "updated", result.Updated,
		"unchanged", result.Unchanged, "removed", result.Removed, "errors", result.Errors)
	return result, nil
}

// SyncOne refreshes the file for a single post without touching the rest
// of the directory. Used after targeted edits and corrections.
func (s *SyncService) SyncOne(id uint) error {
	post, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}

	if !post.ShouldPublish() {
		return s.RemovePostFile(post)
	}

	filename := post.OriginalFilename
	if filename == "" {
		taken, err := s.existingFilenames()
		if err != nil {
			return err
		}
		filename = GenerateFilename(post, taken)
		if err := s.repo.UpdateFields(post.ID, map[string]interface{}{
			"original_filename": filename,
		}); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(s.postsDir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}
	return os.WriteFile(filepath.Join(s.postsDir, filename), []byte(BuildContent(post)), 0o644)
}

// RemovePostFile deletes the post's generated file if one is recorded.
// A missing file is not an error.
func (s *SyncService) RemovePostFile(post *models.Post) error {
	if post.OriginalFilename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.postsDir, post.OriginalFilename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *SyncService) existingFilenames() (map[string]bool, error) {
	taken := make(map[string]bool)
	entries, err := os.ReadDir(s.postsDir)
	if os.IsNotExist(err) {
		return taken, nil
	}
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			taken[entry.Name()] = true
		}
	}
	return taken, nil
}

// VerifyResult lists where the directory and the store disagree.
type VerifyResult struct {
	Missing []string `json:"missing"`
	Orphans []string `json:"orphans"`
}

// Clean reports whether the directory already matches the store.
func (v *VerifyResult) Clean() bool {
	return len(v.Missing) == 0 && len(v.Orphans) == 0
}

// Verify checks the directory against the store without writing anything.
func (s *SyncService) Verify() (*VerifyResult, error) {
	posts, err := s.repo.FindAllOrdered()
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{}
	taken := make(map[string]bool)
	expected := make(map[string]bool)
	for i := range posts {
		post := &posts[i]
		if !post.ShouldPublish() {
			continue
		}
		filename := GenerateFilename(post, taken)
		expected[filename] = true
		if _, err := os.Stat(filepath.Join(s.postsDir, filename)); err != nil {
			result.Missing = append(result.Missing, filename)
		}
	}

	entries, err := os.ReadDir(s.postsDir)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if !expected[name] {
			result.Orphans = append(result.Orphans, name)
		}
	}
	return result, nil
}
