package handlers

import (
	"testing"

	"coffeetour/internal/config"
)

func TestBackfillRequestDefaults(t *testing.T) {
	cfg := config.GithubConfig{
		Repo:     "owner/site",
		Branch:   "master",
		Token:    "configured-token",
		PostsDir: "_coffee_posts_remote",
	}

	req := backfillRequest{}
	req.applyDefaults(cfg)
	if req.Repo != "owner/site" || req.Branch != "master" ||
		req.Dir != "_coffee_posts_remote" || req.Token != "configured-token" {
		t.Fatalf("configured github section must fill omitted fields: %+v", req)
	}

	// Explicit request fields win over config.
	req = backfillRequest{Repo: "other/repo", Dir: "_posts"}
	req.applyDefaults(cfg)
	if req.Repo != "other/repo" || req.Dir != "_posts" {
		t.Fatalf("request fields must not be overridden: %+v", req)
	}
	if req.Branch != "master" || req.Token != "configured-token" {
		t.Fatalf("remaining fields still default from config: %+v", req)
	}
}

func TestBackfillRequestDefaultsWithoutConfig(t *testing.T) {
	req := backfillRequest{Repo: "owner/site"}
	req.applyDefaults(config.GithubConfig{})
	if req.Branch != "main" {
		t.Errorf("branch = %q, want main", req.Branch)
	}
	if req.Dir != "_coffee_posts" {
		t.Errorf("dir = %q, want _coffee_posts", req.Dir)
	}
}
