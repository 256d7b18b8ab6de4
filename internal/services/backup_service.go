package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coffeetour/internal/logger"
	"coffeetour/internal/repository"

	"github.com/google/go-github/v39/github"
	"github.com/yeka/zip"
	"golang.org/x/oauth2"
)

// BackupService produces password-protected snapshots of the whole store.
// A snapshot is always taken before destructive operations (duplicate
// removal) and can also be pushed to a GitHub repository.
type BackupService struct {
	repo      *repository.PostRepository
	backupDir string
	password  string
}

func NewBackupService(repo *repository.PostRepository, backupDir, password string) *BackupService {
	return &BackupService{repo: repo, backupDir: backupDir, password: password}
}

// Snapshot writes an encrypted zip of every post record to the backup
// directory and returns the snapshot path.
func (s *BackupService) Snapshot(label string) (string, error) {
	content, err := s.createEncryptedSnapshot()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("coffee_backup_%s_%s.zip", label, time.Now().Format("20060102150405"))
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	logger.Infow("snapshot_written", "path", path, "bytes", len(content))
	return path, nil
}

func (s *BackupService) createEncryptedSnapshot() ([]byte, error) {
	if s.password == "" {
		return nil, fmt.Errorf("no password configured, cannot create encrypted snapshot")
	}

	posts, err := s.repo.FindAllOrdered()
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	jsonData, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize posts: %w", err)
	}

	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)
	zipFile, err := zipWriter.Encrypt("posts.json", s.password, zip.AES256Encryption)
	if err != nil {
		return nil, fmt.Errorf("create encrypted zip: %w", err)
	}
	if _, err := zipFile.Write(jsonData); err != nil {
		return nil, fmt.Errorf("write zip entry: %w", err)
	}
	zipWriter.Close()

	return buf.Bytes(), nil
}

// BackupToGithub uploads an encrypted snapshot into the configured
// repository. An existing file at the same path is updated in place.
func (s *BackupService) BackupToGithub(repoName, branch, token string) error {
	content, err := s.createEncryptedSnapshot()
	if err != nil {
		return err
	}

	parts := strings.Split(repoName, "/")
	if len(parts) != 2 {
		return fmt.Errorf("invalid repository name %q, expected owner/repo", repoName)
	}
	owner, repo := parts[0], parts[1]
	path := fmt.Sprintf("coffee_backup_%s.zip", time.Now().Format("20060102150405"))
	message := "Automated coffee posts backup"

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	opts := &github.RepositoryContentFileOptions{
		Message: &message,
		Content: content,
		Branch:  &branch,
	}

	_, _, err = client.Repositories.CreateFile(ctx, owner, repo, path, opts)
	if err != nil {
		fileContent, _, _, getErr := client.Repositories.GetContents(ctx, owner, repo, path,
			&github.RepositoryContentGetOptions{Ref: branch})
		if getErr != nil {
			return fmt.Errorf("create backup file: %w", err)
		}
		opts.SHA = fileContent.SHA
		if _, _, updateErr := client.Repositories.UpdateFile(ctx, owner, repo, path, opts); updateErr != nil {
			return fmt.Errorf("update backup file: %w", updateErr)
		}
	}

	logger.Infow("github_backup_done", "repo", repoName, "path", path)
	return nil
}
