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
	exportFile := flag.String("export", "", "Instagram export file (posts_1.json) to import")
	markdownDir := flag.String("markdown", "", "directory of post files to re-import")
	flag.Parse()

	logger.Init("debug", logger.Options{})

	if *exportFile == "" && *markdownDir == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -export and/or -markdown")
		flag.Usage()
		os.Exit(2)
	}

	db, err := utils.InitDatabase(*dbPath)
	if err != nil {
		logger.Errorw("database_init_failed", "path", *dbPath, "error", err)
		os.Exit(1)
	}

	importSvc := services.NewImportService(repository.NewPostRepository(db))

	if *exportFile != "" {
		stats, err := importSvc.ProcessExportFile(*exportFile)
		if err != nil {
			logger.Errorw("export_import_failed", "path", *exportFile, "error", err)
			os.Exit(1)
		}
		printStats("export", stats)
	}

	if *markdownDir != "" {
		stats, err := importSvc.ImportMarkdownDir(*markdownDir)
		if err != nil {
			logger.Errorw("markdown_import_failed", "dir", *markdownDir, "error", err)
			os.Exit(1)
		}
		printStats("markdown", stats)
	}
}

func printStats(source string, stats *services.ImportStats) {
	fmt.Printf("%s: inserted=%d merged=%d unchanged=%d skipped=%d errors=%d\n",
		source, stats.Inserted, stats.Merged, stats.Unchanged, stats.Skipped, stats.Errors)
}
