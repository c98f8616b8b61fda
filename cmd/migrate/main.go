package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/database"
	"github.com/pageza/caltrack/web/internal/models"
)

func main() {
	// Parse command line flags
	reset := flag.Bool("reset", false, "Drop stored profiles and RDA values before migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver == config.StoreRedis {
		log.Fatal("STORE_DRIVER=redis needs no migrations")
	}

	// database.New applies migrations on connect
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get database handle: %v", err)
	}
	defer sqlDB.Close()

	if *reset {
		if err := db.Migrator().DropTable(&models.KVEntry{}); err != nil {
			log.Fatalf("failed to drop %s: %v", models.KVEntry{}.TableName(), err)
		}
		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		fmt.Printf("Reset table: %s\n", models.KVEntry{}.TableName())
	}

	var count int64
	if err := db.Model(&models.KVEntry{}).Count(&count).Error; err != nil {
		log.Fatalf("failed to inspect %s: %v", models.KVEntry{}.TableName(), err)
	}
	fmt.Printf("Migrations applied successfully (%s driver, %d stored entries).\n", cfg.StoreDriver, count)
}
