package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coffeetour/internal/models"
	"coffeetour/internal/repository"
)

func seedPublishable(t *testing.T, repo *repository.PostRepository, title, date string) *models.Post {
	t.Helper()
	post := models.Candidate{
		Title:     title,
		Date:      parseDate(t, date),
		City:      "Oslo",
		Country:   "Norway",
		Continent: "Europe",
		CafeName:  "Tim Wendelboe",
		Latitude:  floatPtr(59.92),
		Longitude: floatPtr(10.75),
		Notes:     "Notes for " + title,
	}.ToPost()
	if err := repo.Create(post); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return post
}

func TestGenerateFilename(t *testing.T) {
	taken := make(map[string]bool)
	post := &models.Post{Title: "Flat White at Tim Wendelboe!", Date: parseDate(t, "2019-05-04")}

	name := GenerateFilename(post, taken)
	if name != "2019-05-04-flat-white-at-tim-wendelboe.md" {
		t.Fatalf("filename = %q", name)
	}

	// Same title and date within a run gets a disambiguator.
	second := GenerateFilename(post, taken)
	if second != "2019-05-04-flat-white-at-tim-wendelboe-2.md" {
		t.Fatalf("second filename = %q", second)
	}
}

func TestGenerateFilenameTruncatesLongSlug(t *testing.T) {
	taken := make(map[string]bool)
	post := &models.Post{
		Title: strings.Repeat("very long title ", 10),
		Date:  parseDate(t, "2019-05-04"),
	}

	name := GenerateFilename(post, taken)
	slugPart := strings.TrimSuffix(strings.TrimPrefix(name, "2019-05-04-"), ".md")
	if len(slugPart) > 50 {
		t.Fatalf("slug part too long (%d): %q", len(slugPart), slugPart)
	}
	if strings.HasSuffix(slugPart, "-") {
		t.Fatalf("slug must not end with a dash: %q", slugPart)
	}
}

func TestGenerateFilenameUntitledFallback(t *testing.T) {
	taken := make(map[string]bool)
	date := parseDate(t, "2020-01-01")

	first := GenerateFilename(&models.Post{Date: date}, taken)
	second := GenerateFilename(&models.Post{Date: date}, taken)
	if first != "2020-01-01-untitled.md" {
		t.Fatalf("first = %q", first)
	}
	if second != "2020-01-01-untitled-2.md" {
		t.Fatalf("empty titles on the same date must not collide, second = %q", second)
	}
}

func TestSyncWritesOnlyPublishable(t *testing.T) {
	repo := setupServiceTest(t)
	dir := t.TempDir()
	svc := NewSyncService(repo, dir)

	seedPublishable(t, repo, "Published post", "2020-03-01")

	incomplete := models.Candidate{Title: "Incomplete post", Date: parseDate(t, "2020-03-02")}.ToPost()
	if err := repo.Create(incomplete); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := svc.Sync()
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created = %d, want 1", result.Created)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly the publishable file, got %d entries", len(entries))
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	repo := setupServiceTest(t)
	svc := NewSyncService(repo, t.TempDir())

	seedPublishable(t, repo, "Stable post", "2020-03-01")

	if _, err := svc.Sync(); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	second, err := svc.Sync()
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if second.Created != 0 || second.Updated != 0 || second.Removed != 0 {
		t.Fatalf("second sync should be a no-op: %+v", second)
	}
	if second.Unchanged != 1 {
		t.Fatalf("unchanged = %d, want 1", second.Unchanged)
	}
}

func TestSyncRewritesChangedContent(t *testing.T) {
	repo := setupServiceTest(t)
	svc := NewSyncService(repo, t.TempDir())

	post := seedPublishable(t, repo, "Edited post", "2020-03-01")
	if _, err := svc.Sync(); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	if err := repo.UpdateFields(post.ID, map[string]interface{}{"rating": 5}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	result, err := svc.Sync()
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("updated = %d, want 1", result.Updated)
	}
}

func TestUnpublishRemovesFile(t *testing.T) {
	repo := setupServiceTest(t)
	dir := t.TempDir()
	svc := NewSyncService(repo, dir)

	post := seedPublishable(t, repo, "Retracted post", "2020-03-01")
	if _, err := svc.Sync(); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	if err := repo.UpdateFields(post.ID, map[string]interface{}{"published": false}); err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}

	result, err := svc.Sync()
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("removed = %d, want 1", result.Removed)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("directory should be empty, has %d entries", len(entries))
	}
}

func TestSyncRemovesOrphanFiles(t *testing.T) {
	repo := setupServiceTest(t)
	dir := t.TempDir()
	svc := NewSyncService(repo, dir)

	orphan := filepath.Join(dir, "2001-01-01-stale.md")
	if err := os.WriteFile(orphan, []byte("---\n---\nstale\n"), 0o644); err != nil {
		t.Fatalf("write orphan failed: %v", err)
	}

	result, err := svc.Sync()
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("removed = %d, want 1", result.Removed)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatal("orphan file should be gone")
	}
}

func TestSyncRecordsFilename(t *testing.T) {
	repo := setupServiceTest(t)
	svc := NewSyncService(repo, t.TempDir())

	post := seedPublishable(t, repo, "Tracked post", "2020-03-01")
	if _, err := svc.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	stored, err := repo.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.OriginalFilename != "2020-03-01-tracked-post.md" {
		t.Fatalf("original filename = %q", stored.OriginalFilename)
	}
}

func TestSyncOneUnpublishedRemoves(t *testing.T) {
	repo := setupServiceTest(t)
	dir := t.TempDir()
	svc := NewSyncService(repo, dir)

	post := seedPublishable(t, repo, "Single post", "2020-03-01")
	if err := svc.SyncOne(post.ID); err != nil {
		t.Fatalf("sync one failed: %v", err)
	}

	stored, err := repo.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	path := filepath.Join(dir, stored.OriginalFilename)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}

	if err := repo.UpdateFields(post.ID, map[string]interface{}{"published": false}); err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if err := svc.SyncOne(post.ID); err != nil {
		t.Fatalf("sync one failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should be removed after unpublish")
	}
}

func TestVerifyReportsDrift(t *testing.T) {
	repo := setupServiceTest(t)
	dir := t.TempDir()
	svc := NewSyncService(repo, dir)

	seedPublishable(t, repo, "Missing on disk", "2020-03-01")
	orphan := filepath.Join(dir, "1999-01-01-orphan.md")
	if err := os.WriteFile(orphan, []byte("---\n---\nx\n"), 0o644); err != nil {
		t.Fatalf("write orphan failed: %v", err)
	}

	result, err := svc.Verify()
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Clean() {
		t.Fatal("verify should report drift")
	}
	if len(result.Missing) != 1 || len(result.Orphans) != 1 {
		t.Fatalf("missing=%v orphans=%v", result.Missing, result.Orphans)
	}

	if _, err := svc.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	result, err = svc.Verify()
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Clean() {
		t.Fatalf("directory should match after sync: missing=%v orphans=%v",
			result.Missing, result.Orphans)
	}
}
