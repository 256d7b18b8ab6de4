package repository

import (
	"fmt"
	"testing"
	"time"

	"coffeetour/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPostRepositoryTest(t *testing.T) *PostRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Post{}, &models.Correction{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewPostRepository(db)
}

func testPost(t *testing.T, title, date string) *models.Post {
	t.Helper()
	post := models.Candidate{Title: title, Date: parseDate(t, date)}.ToPost()
	return post
}

func parseDate(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q failed: %v", value, err)
	}
	return &parsed
}

func TestUpsertInsertsNewFingerprint(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	post := testPost(t, "Espresso in Naples", "2020-03-01")
	id, action, err := repo.Upsert(post)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if action != "inserted" || id == 0 {
		t.Fatalf("expected insert, got action=%s id=%d", action, id)
	}

	count, err := repo.Count(false)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestUpsertUpdatesExistingFingerprint(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	original := testPost(t, "Espresso in Naples", "2020-03-01")
	firstID, _, err := repo.Upsert(original)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	reimported := testPost(t, "Espresso in Naples", "2020-03-01")
	reimported.City = "Naples"
	reimported.Country = "Italy"
	secondID, action, err := repo.Upsert(reimported)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if action != "updated" {
		t.Fatalf("expected update, got %s", action)
	}
	if secondID != firstID {
		t.Fatalf("upsert must land on the existing record: %d != %d", secondID, firstID)
	}

	stored, err := repo.FindByID(firstID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.City != "Naples" {
		t.Fatalf("city not applied, got %q", stored.City)
	}
}

func TestFindByHashMissing(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	post, err := repo.FindByHash("no-such-hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post != nil {
		t.Fatal("expected nil for a missing hash")
	}
}

func TestUpdateFieldsPartial(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	post := testPost(t, "Cold brew in Kyoto", "2019-11-11")
	if err := repo.Create(post); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err := repo.UpdateFields(post.ID, map[string]interface{}{
		"cafe_name": "% Arabica",
		"rating":    4,
	})
	if err != nil {
		t.Fatalf("update fields failed: %v", err)
	}

	stored, err := repo.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.CafeName != "% Arabica" {
		t.Errorf("cafe_name = %q", stored.CafeName)
	}
	if stored.Rating == nil || *stored.Rating != 4 {
		t.Errorf("rating = %v", stored.Rating)
	}
	if stored.Title != "Cold brew in Kyoto" {
		t.Errorf("untouched field changed: %q", stored.Title)
	}
}

func TestFindByFilename(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	post := testPost(t, "Cortado in Madrid", "2018-06-20")
	post.OriginalFilename = "2018-06-20-cortado-in-madrid.md"
	if err := repo.Create(post); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := repo.FindByFilename("2018-06-20-cortado-in-madrid.md")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found == nil || found.ID != post.ID {
		t.Fatalf("expected post %d, got %v", post.ID, found)
	}

	missing, err := repo.FindByFilename("nope.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for an unknown filename")
	}
}

func TestStatistics(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	europe := testPost(t, "Flat white in Oslo", "2019-05-04")
	europe.Continent = "Europe"
	europe.Country = "Norway"
	europe.CafeName = "Tim Wendelboe"
	if err := repo.Create(europe); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	asia := testPost(t, "Pour over in Tokyo", "2019-08-10")
	asia.Continent = "Asia"
	asia.Country = "Japan"
	asia.Published = false
	if err := repo.Create(asia); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stats, err := repo.Statistics()
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("total = %d", stats.Total)
	}
	if stats.Published != 1 {
		t.Errorf("published = %d", stats.Published)
	}
	if stats.WithCafe != 1 {
		t.Errorf("with_cafe = %d", stats.WithCafe)
	}
	if stats.ByContinent["Europe"] != 1 || stats.ByContinent["Asia"] != 1 {
		t.Errorf("by_continent = %v", stats.ByContinent)
	}
}

func TestCreatePreservesUnpublishedFlag(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	post := testPost(t, "Retracted before insert", "2020-07-01")
	post.Published = false
	if err := repo.Create(post); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.FindByID(post.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.Published {
		t.Fatal("an explicit false publish flag must survive the insert")
	}

	published, err := repo.Count(true)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if published != 0 {
		t.Fatalf("published count = %d, want 0", published)
	}
}

func TestDeleteByIDs(t *testing.T) {
	repo := setupPostRepositoryTest(t)

	first := testPost(t, "One", "2020-01-01")
	second := testPost(t, "Two", "2020-01-02")
	third := testPost(t, "Three", "2020-01-03")
	for _, post := range []*models.Post{first, second, third} {
		if err := repo.Create(post); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	if err := repo.DeleteByIDs([]uint{first.ID, third.ID}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	count, err := repo.Count(false)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 survivor, got %d", count)
	}
}
