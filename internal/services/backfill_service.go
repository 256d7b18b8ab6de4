package services

import (
	"context"
	"fmt"
	"strings"

	"coffeetour/internal/logger"
	"coffeetour/internal/models"
	"coffeetour/internal/repository"
	"coffeetour/internal/utils"

	"github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"
)

// BackfillService pulls previously published post files from a GitHub
// repository and folds their curated fields into matching local records.
// It only enriches: no new records are created and no existing value is
// overwritten.
type BackfillService struct {
	repo *repository.PostRepository
}

func NewBackfillService(repo *repository.PostRepository) *BackfillService {
	return &BackfillService{repo: repo}
}

// BackfillFromGithub walks the posts directory of owner/repo at branch
// and gap-fills local records that match by date and title or cafe name.
func (s *BackfillService) BackfillFromGithub(repoName, branch, dir, token string) (*ImportStats, error) {
	parts := strings.Split(repoName, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid repository name %q, expected owner/repo", repoName)
	}
	owner, repo := parts[0], parts[1]

	ctx := context.Background()
	var client *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}

	_, entries, _, err := client.Repositories.GetContents(ctx, owner, repo, dir,
		&github.RepositoryContentGetOptions{Ref: branch})
	if err != nil {
		return nil, fmt.Errorf("list %s in %s: %w", dir, repoName, err)
	}

	stats := &ImportStats{}
	for _, entry := range entries {
		name := entry.GetName()
		if entry.GetType() != "file" || !strings.HasSuffix(name, ".md") {
			continue
		}

		fileContent, _, _, err := client.Repositories.GetContents(ctx, owner, repo,
			entry.GetPath(), &github.RepositoryContentGetOptions{Ref: branch})
		if err != nil {
			logger.Errorw("fetch_remote_post_failed", "file", name, "error", err)
			stats.Errors++
			continue
		}
		content, err := fileContent.GetContent()
		if err != nil {
			logger.Errorw("decode_remote_post_failed", "file", name, "error", err)
			stats.Errors++
			continue
		}

		if err := s.backfillFile(name, content, stats); err != nil {
			logger.Errorw("backfill_post_failed", "file", name, "error", err)
			stats.Errors++
		}
	}

	logger.Infow("backfill_done", "repo", repoName, "dir", dir,
		"merged", stats.Merged, "unchanged", stats.Unchanged,
		"skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

func (s *BackfillService) backfillFile(name, content string, stats *ImportStats) error {
	incoming, err := parseRemotePost(content)
	if err != nil {
		stats.Skipped++
		return nil
	}

	existing, err := s.matchLocal(incoming)
	if err != nil {
		return err
	}
	if existing == nil {
		stats.Skipped++
		return nil
	}

	fields := BuildMergeUpdate(existing, incoming)
	if len(fields) == 0 {
		stats.Unchanged++
		return nil
	}
	if err := s.repo.UpdateFields(existing.ID, fields); err != nil {
		return err
	}
	logger.Infow("backfilled_post", "id", existing.ID, "file", name, "fields", len(fields))
	stats.Merged++
	return nil
}

func parseRemotePost(content string) (*models.Post, error) {
	fm, body, err := utils.ParseFrontMatter(content)
	if err != nil {
		return nil, err
	}
	candidate := candidateFromFrontMatter(fm, body)
	return candidate.ToPost(), nil
}

// matchLocal finds the local record the remote file describes: same
// calendar date, plus either overlapping leading title words or the
// remote cafe name appearing in the local title.
func (s *BackfillService) matchLocal(incoming *models.Post) (*models.Post, error) {
	if incoming.Date == nil {
		return nil, nil
	}
	sameDay, err := s.repo.FindByDate(*incoming.Date)
	if err != nil {
		return nil, err
	}

	incomingWords := leadingWords(incoming.Title, 3)
	for i := range sameDay {
		local := &sameDay[i]
		if incomingWords != "" && incomingWords == leadingWords(local.Title, 3) {
			return local, nil
		}
		if !isPlaceholderCafe(incoming.CafeName) &&
			strings.Contains(strings.ToLower(local.Title), strings.ToLower(incoming.CafeName)) {
			return local, nil
		}
	}
	if len(sameDay) == 1 {
		return &sameDay[0], nil
	}
	return nil, nil
}

func leadingWords(title string, n int) string {
	words := strings.Fields(strings.ToLower(title))
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
