package main

import (
	"flag"
	"fmt"
	"os"

	"coffeetour/internal/constants"
	"coffeetour/internal/logger"
	"coffeetour/internal/repository"
	"coffeetour/internal/services"
	"coffeetour/internal/utils"
)

func main() {
	dbPath := flag.String("db", constants.DefaultDatabasePath, "path to the SQLite database")
	repoName := flag.String("repo", "", "GitHub repository (owner/name) holding published posts")
	branch := flag.String("branch", "main", "branch to read from")
	dir := flag.String("dir", constants.DefaultPostsDir, "posts directory inside the repository")
	token := flag.String("token", os.Getenv("GITHUB_TOKEN"), "GitHub access token")
	flag.Parse()

	logger.Init("debug", logger.Options{})

	if *repoName == "" {
		fmt.Fprintln(os.Stderr, "-repo is required")
		flag.Usage()
		os.Exit(2)
	}

	db, err := utils.InitDatabase(*dbPath)
	if err != nil {
		logger.Errorw("database_init_failed", "path", *dbPath, "error", err)
		os.Exit(1)
	}

	backfillSvc := services.NewBackfillService(repository.NewPostRepository(db))
	stats, err := backfillSvc.BackfillFromGithub(*repoName, *branch, *dir, *token)
	if err != nil {
		logger.Errorw("backfill_failed", "repo", *repoName, "error", err)
		os.Exit(1)
	}
	fmt.Printf("merged=%d unchanged=%d skipped=%d errors=%d\n",
		stats.Merged, stats.Unchanged, stats.Skipped, stats.Errors)
}
