package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cartview/internal/config"
	"cartview/internal/db"
	"cartview/internal/importer"
	"cartview/internal/logging"
	"cartview/internal/repository/catalog"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV (id,title,image,price_cents)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("app", "importer")
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, catalog.NewPostgres(pool, log), log)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d catalog items in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
