package services

import (
	"fmt"
	"strings"
	"testing"

	"coffeetour/internal/models"
	"coffeetour/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCorrectionTest(t *testing.T) (*CorrectionService, *repository.PostRepository, *SyncService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Post{}, &models.Correction{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	posts := repository.NewPostRepository(db)
	corrections := repository.NewCorrectionRepository(db)
	syncSvc := NewSyncService(posts, t.TempDir())
	return NewCorrectionService(corrections, posts, syncSvc), posts, syncSvc
}

func strPtr(v string) *string { return &v }

func TestCorrectionOverwritesUnconditionally(t *testing.T) {
	svc, posts, syncSvc := setupCorrectionTest(t)

	post := seedPublishable(t, posts, "Needs fixing", "2020-04-01")
	if _, err := syncSvc.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	stored, err := posts.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	stem := strings.TrimSuffix(stored.OriginalFilename, ".md")

	correction := &models.Correction{
		PostKey:  "coffee/" + stem,
		CafeName: strPtr("Corrected Cafe"),
		City:     strPtr("Bergen"),
	}
	if err := svc.Save(correction); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	fixed, err := posts.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	// The post already had real values; corrections replace them anyway.
	if fixed.CafeName != "Corrected Cafe" || fixed.City != "Bergen" {
		t.Fatalf("correction not applied: %q / %q", fixed.CafeName, fixed.City)
	}
}

func TestCorrectionUnmatchedIsKept(t *testing.T) {
	svc, _, _ := setupCorrectionTest(t)

	correction := &models.Correction{
		PostKey:  "coffee/2099-01-01-not-yet-imported",
		CafeName: strPtr("Future Cafe"),
	}
	if err := svc.Save(correction); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := svc.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("unmatched correction must stay stored, got %d", len(stored))
	}

	applied, unmatched, err := svc.ApplyAll()
	if err != nil {
		t.Fatalf("apply all failed: %v", err)
	}
	if applied != 0 || unmatched != 1 {
		t.Fatalf("applied=%d unmatched=%d", applied, unmatched)
	}
}
