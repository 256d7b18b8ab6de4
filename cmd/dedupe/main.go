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
	backupDir := flag.String("backups", constants.DefaultBackupDir, "directory for pre-removal snapshots")
	password := flag.String("password", "", "snapshot encryption password (required with -no-dry-run)")
	noDryRun := flag.Bool("no-dry-run", false, "actually remove duplicates instead of reporting")
	flag.Parse()

	logger.Init("debug", logger.Options{})

	if *noDryRun && *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required when removing duplicates")
		os.Exit(2)
	}

	db, err := utils.InitDatabase(*dbPath)
	if err != nil {
		logger.Errorw("database_init_failed", "path", *dbPath, "error", err)
		os.Exit(1)
	}

	repo := repository.NewPostRepository(db)
	syncSvc := services.NewSyncService(repo, *postsDir)
	backupSvc := services.NewBackupService(repo, *backupDir, *password)
	dedupeSvc := services.NewDedupeService(repo, syncSvc, backupSvc)

	report, err := dedupeSvc.RemoveDuplicates(!*noDryRun)
	if err != nil {
		logger.Errorw("dedupe_failed", "error", err)
		os.Exit(1)
	}

	for _, group := range report.Confirmed {
		fmt.Printf("confirmed [%s] %s: %d posts\n", group.Kind, group.Key, len(group.Posts))
	}
	for _, group := range report.Potential {
		fmt.Printf("potential [%s] %s: %d posts (review manually)\n",
			group.Kind, group.Key, len(group.Posts))
	}
	if report.DryRun {
		fmt.Printf("dry run: %d posts would be removed, %d kept\n",
			len(report.Removed), len(report.Kept))
		return
	}
	fmt.Printf("removed %d posts, kept %d, snapshot: %s\n",
		len(report.Removed), len(report.Kept), report.Snapshot)
}
