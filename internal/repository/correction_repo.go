package repository

import (
	"errors"

	"coffeetour/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CorrectionRepository struct {
	db *gorm.DB
}

func NewCorrectionRepository(db *gorm.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

// Save inserts or replaces the correction for its post key.
func (r *CorrectionRepository) Save(correction *models.Correction) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_key"}},
		UpdateAll: true,
	}).Create(correction).Error
}

func (r *CorrectionRepository) Get(postKey string) (*models.Correction, error) {
	var correction models.Correction
	err := r.db.Where("post_key = ?", postKey).First(&correction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &correction, nil
}

func (r *CorrectionRepository) All() ([]models.Correction, error) {
	var corrections []models.Correction
	err := r.db.Order("post_key asc").Find(&corrections).Error
	return corrections, err
}

func (r *CorrectionRepository) Delete(postKey string) error {
	return r.db.Where("post_key = ?", postKey).Delete(&models.Correction{}).Error
}
