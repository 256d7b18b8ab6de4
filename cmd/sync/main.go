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
	postsDir := flag.String("posts", constants.DefaultPostsDir, "directory of generated post files")
	verifyOnly := flag.Bool("verify-only", false, "report discrepancies without writing")
	statsOnly := flag.Bool("stats-only", false, "print store statistics and exit")
	flag.Parse()

	logger.Init("debug", logger.Options{})

	db, err := utils.InitDatabase(*dbPath)
	if err != nil {
		logger.Errorw("database_init_failed", "path", *dbPath, "error", err)
		os.Exit(1)
	}

	repo := repository.NewPostRepository(db)

	if *statsOnly {
		stats, err := repo.Statistics()
		if err != nil {
			logger.Errorw("stats_failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("posts: %d total, %d published\n", stats.Total, stats.Published)
		fmt.Printf("with cafe: %d, rating: %d, coordinates: %d, images: %d\n",
			stats.WithCafe, stats.WithRating, stats.WithCoords, stats.WithImages)
		for continent, count := range stats.ByContinent {
			fmt.Printf("  %s: %d\n", continent, count)
		}
		return
	}

	syncSvc := services.NewSyncService(repo, *postsDir)

	if *verifyOnly {
		result, err := syncSvc.Verify()
		if err != nil {
			logger.Errorw("verify_failed", "error", err)
			os.Exit(1)
		}
		for _, name := range result.Missing {
			fmt.Printf("missing: %s\n", name)
		}
		for _, name := range result.Orphans {
			fmt.Printf("orphan:  %s\n", name)
		}
		if result.Clean() {
			fmt.Println("posts directory matches the database")
			return
		}
		os.Exit(1)
	}

	result, err := syncSvc.Sync()
	if err != nil {
		logger.Errorw("sync_failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("created=%d updated=%d unchanged=%d removed=%d errors=%d\n",
		result.Created, result.Updated, result.Unchanged, result.Removed, result.Errors)
}
