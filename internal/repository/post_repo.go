package repository

import (
	"errors"
	"time"

	"coffeetour/internal/constants"
	"coffeetour/internal/models"

	"gorm.io/gorm"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *PostRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

func (r *PostRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

func (r *PostRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Post{}).Error
}

func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.First(&post, id).Error
	return &post, err
}

// FindByHash looks up a post by its content fingerprint. A nil post with
// a nil error means no record carries that hash.
func (r *PostRepository) FindByHash(hash string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("hash = ?", hash).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Upsert inserts the post, or applies its core fields onto the existing
// record that shares the same hash. It reports the stored record's ID and
// whether the call inserted or updated.
func (r *PostRepository) Upsert(post *models.Post) (uint, string, error) {
	existing, err := r.FindByHash(post.Hash)
	if err != nil {
		return 0, "", err
	}
	if existing == nil {
		if err := r.db.Create(post).Error; err != nil {
			return 0, "", err
		}
		return post.ID, "inserted", nil
	}

	fields := map[string]interface{}{
		"title":         post.Title,
		"date":          post.Date,
		"city":          post.City,
		"country":       post.Country,
		"continent":     post.Continent,
		"latitude":      post.Latitude,
		"longitude":     post.Longitude,
		"cafe_name":     post.CafeName,
		"rating":        post.Rating,
		"notes":         post.Notes,
		"images":        post.Images,
		"instagram_url": post.InstagramURL,
		"updated_at":    time.Now(),
	}
	if err := r.UpdateFields(existing.ID, fields); err != nil {
		return 0, "", err
	}
	return existing.ID, "updated", nil
}

func (r *PostRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PostRepository) FindAll(publishedOnly bool) ([]models.Post, error) {
	var posts []models.Post
	query := r.db
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Order("date desc, id desc").Find(&posts).Error
	return posts, err
}

// FindAllOrdered returns every post in ascending ID order. The file
// synchronizer depends on this ordering so filename disambiguators stay
// stable run over run.
func (r *PostRepository) FindAllOrdered() ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Order("id asc").Find(&posts).Error
	return posts, err
}

func (r *PostRepository) FindPage(page, pageSize int, publishedOnly bool) ([]models.Post, error) {
	var posts []models.Post
	query := r.db
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	offset := (page - 1) * pageSize
	err := query.Order("date desc, id desc").Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, err
}

func (r *PostRepository) Count(publishedOnly bool) (int64, error) {
	var count int64
	query := r.db.Model(&models.Post{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *PostRepository) Search(term string, page, pageSize int) ([]models.Post, int64, error) {
	like := "%" + term + "%"
	query := r.db.Model(&models.Post{}).Where(
		"title LIKE ? OR notes LIKE ? OR cafe_name LIKE ? OR city LIKE ? OR country LIKE ?",
		like, like, like, like, like,
	)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	offset := (page - 1) * pageSize
	err := query.Order("date desc, id desc").Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, count, err
}

// FindByFilename matches a post by the derived file it was generated
// into or re-imported from.
func (r *PostRepository) FindByFilename(filename string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("original_filename = ?", filename).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) FindByDate(date time.Time) ([]models.Post, error) {
	var posts []models.Post
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	err := r.db.Where("date >= ? AND date < ?", start, end).Order("id asc").Find(&posts).Error
	return posts, err
}

// Statistics summarizes the store for the admin dashboard.
type Statistics struct {
	Total        int64            `json:"total"`
	Published    int64            `json:"published"`
	WithCafe     int64            `json:"with_cafe"`
	WithRating   int64            `json:"with_rating"`
	WithCoords   int64            `json:"with_coordinates"`
	WithImages   int64            `json:"with_images"`
	ByContinent  map[string]int64 `json:"by_continent"`
	ByCountry    map[string]int64 `json:"by_country"`
	EarliestDate *time.Time       `json:"earliest_date"`
	LatestDate   *time.Time       `json:"latest_date"`
}

func (r *PostRepository) Statistics() (*Statistics, error) {
	stats := &Statistics{
		ByContinent: make(map[string]int64),
		ByCountry:   make(map[string]int64),
	}

	model := func() *gorm.DB { return r.db.Model(&models.Post{}) }
	if err := model().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := model().Where("published = ?", true).Count(&stats.Published).Error; err != nil {
		return nil, err
	}
	if err := model().Where("cafe_name != '' AND cafe_name NOT IN ?", placeholderList()).
		Count(&stats.WithCafe).Error; err != nil {
		return nil, err
	}
	if err := model().Where("rating IS NOT NULL").Count(&stats.WithRating).Error; err != nil {
		return nil, err
	}
	if err := model().Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Count(&stats.WithCoords).Error; err != nil {
		return nil, err
	}
	if err := model().Where("images != '' AND images != '[]'").Count(&stats.WithImages).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var continents []bucket
	if err := model().Select("continent AS key, COUNT(*) AS count").
		Group("continent").Scan(&continents).Error; err != nil {
		return nil, err
	}
	for _, b := range continents {
		stats.ByContinent[b.Key] = b.Count
	}

	var countries []bucket
	if err := model().Select("country AS key, COUNT(*) AS count").
		Group("country").Scan(&countries).Error; err != nil {
		return nil, err
	}
	for _, b := range countries {
		stats.ByCountry[b.Key] = b.Count
	}

	var earliest, latest models.Post
	if err := r.db.Where("date IS NOT NULL").Order("date asc").First(&earliest).Error; err == nil {
		stats.EarliestDate = earliest.Date
	}
	if err := r.db.Where("date IS NOT NULL").Order("date desc").First(&latest).Error; err == nil {
		stats.LatestDate = latest.Date
	}

	return stats, nil
}

func placeholderList() []string {
	names := make([]string, 0, len(constants.CafeNamePlaceholders))
	for name := range constants.CafeNamePlaceholders {
		names = append(names, name)
	}
	return names
}

func (r *PostRepository) GetDB() *gorm.DB {
	return r.db
}
