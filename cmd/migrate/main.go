package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/config"
	"github.com/CoconutOil2004/project-sdn-group302/internal/migration"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Migration target constants
const (
	targetAll       = "all"
	targetMessaging = "messaging"
	targetDirectory = "directory"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	target := flag.String("target", targetAll, "migration target: all, messaging, directory")
	dryRun := flag.Bool("dry-run", false, "show the tables that would be migrated without executing")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	targets, err := parseTargets(*target)
	if err != nil {
		log.Fatal(err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	// a dry run only parses models and must not need a reachable server
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.Database.GetDSN(),
		SkipInitializeWithVersion: *dryRun,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		DryRun: *dryRun,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *dryRun {
		runDryRun(db, targets)
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	for _, t := range targets {
		log.Printf("[migrate] Starting: %s", t)
		tStart := time.Now()

		switch t {
		case targetMessaging:
			err = migration.Run(db)
		case targetDirectory:
			err = migration.RunDirectory(db)
		}
		if err != nil {
			log.Fatalf("[migrate] %s failed: %v", t, err)
		}
		log.Printf("[migrate] Completed: %s (%s)", t, time.Since(tStart).Round(time.Millisecond))
	}
	log.Printf("[migrate] All done in %s", time.Since(start).Round(time.Millisecond))
}

func runDryRun(db *gorm.DB, targets []string) {
	for _, t := range targets {
		models := migration.MessagingModels()
		if t == targetDirectory {
			models = migration.DirectoryModels()
		}
		names, err := migration.TableNames(db, models)
		if err != nil {
			log.Fatalf("[dry-run] %s: %v", t, err)
		}
		fmt.Printf("[dry-run] %s: %s\n", t, strings.Join(names, ", "))
	}
}

// parseTargets expands "all" and rejects unknown names
func parseTargets(target string) ([]string, error) {
	var targets []string
	for _, t := range strings.Split(target, ",") {
		switch t = strings.TrimSpace(t); t {
		case targetAll:
			targets = append(targets, targetDirectory, targetMessaging)
		case targetMessaging, targetDirectory:
			targets = append(targets, t)
		default:
			return nil, fmt.Errorf("unknown migration target %q", t)
		}
	}
	return targets, nil
}
