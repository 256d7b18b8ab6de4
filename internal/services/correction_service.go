package services

import (
	"fmt"
	"strings"
	"time"

	"coffeetour/internal/logger"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
)

// CorrectionService stores operator-entered fixes and applies them to the
// matching records. Unlike import merges, corrections overwrite
// unconditionally: the operator's word beats whatever the record holds.
type CorrectionService struct {
	corrections *repository.CorrectionRepository
	posts       *repository.PostRepository
	sync        *SyncService
}

func NewCorrectionService(corrections *repository.CorrectionRepository, posts *repository.PostRepository, sync *SyncService) *CorrectionService {
	return &CorrectionService{corrections: corrections, posts: posts, sync: sync}
}

// Save stores the correction and immediately applies it.
func (s *CorrectionService) Save(correction *models.Correction) error {
	if err := s.corrections.Save(correction); err != nil {
		return err
	}
	return s.Apply(correction)
}

// Apply pushes one correction onto its post and refreshes the post's
// generated file. A correction whose post key matches no record is left
// in place; it applies once the record shows up.
func (s *CorrectionService) Apply(correction *models.Correction) error {
	post, err := s.findTarget(correction.PostKey)
	if err != nil {
		return err
	}
	if post == nil {
		logger.Warnw("correction_unmatched", "post_key", correction.PostKey)
		return nil
	}

	fields := correction.Fields()
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	if err := s.posts.UpdateFields(post.ID, fields); err != nil {
		return err
	}
	return s.sync.SyncOne(post.ID)
}

// ApplyAll replays every stored correction, reporting how many matched a
// record.
func (s *CorrectionService) ApplyAll() (applied, unmatched int, err error) {
	corrections, err := s.corrections.All()
	if err != nil {
		return 0, 0, err
	}
	for i := range corrections {
		post, err := s.findTarget(corrections[i].PostKey)
		if err != nil {
			return applied, unmatched, err
		}
		if post == nil {
			unmatched++
			continue
		}
		if err := s.Apply(&corrections[i]); err != nil {
			return applied, unmatched, err
		}
		applied++
	}
	return applied, unmatched, nil
}

// findTarget resolves a post key of the form "coffee/<filename-stem>"
// (or a bare filename stem) to its record.
func (s *CorrectionService) findTarget(postKey string) (*models.Post, error) {
	stem := strings.TrimPrefix(postKey, "coffee/")
	if stem == "" {
		return nil, fmt.Errorf("empty post key")
	}
	return s.posts.FindByFilename(stem + ".md")
}

func (s *CorrectionService) List() ([]models.Correction, error) {
	return s.corrections.All()
}

func (s *CorrectionService) Delete(postKey string) error {
	return s.corrections.Delete(postKey)
}
