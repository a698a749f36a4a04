package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"

	"github.com/liwesley02/otter-consolidator/cmd/utils/internal/commands"
)

const (
	appName    = "consolidator-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configArgs := os.Args[2:]
	if os.Args[1] == "publish-snapshot" && len(os.Args) > 2 {
		configArgs = os.Args[3:]
	}

	config, err := apt.LoadConfig("UTILS", configArgs)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "publish-demo":
		if err := commands.PublishDemo(ctx, config, logger); err != nil {
			log.Fatalf("❌ Demo snapshot publish failed: %v", err)
		}
		logger.Info("✅ Demo snapshot published successfully")

	case "publish-snapshot":
		if len(os.Args) < 3 {
			fmt.Println("Usage: " + appName + " publish-snapshot <file.json>")
			os.Exit(1)
		}
		if err := commands.PublishSnapshot(ctx, config, logger, os.Args[2]); err != nil {
			log.Fatalf("❌ Snapshot publish failed: %v", err)
		}
		logger.Info("✅ Snapshot published successfully")

	case "clear-archive":
		if err := commands.ClearArchive(ctx, config, logger); err != nil {
			log.Fatalf("❌ Clear batch archive failed: %v", err)
		}
		logger.Info("✅ Batch archive cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Consolidator utility commands

Usage:
  %s <command> [options]

Commands:
  publish-demo      Publish a built-in demo order snapshot to NATS
  publish-snapshot  Publish a snapshot event from a JSON file to NATS
  clear-archive     Drop the drained batch archive collection
  reset-db          Drop the consolidator database (USE WITH CAUTION)
  version           Print version information
  help              Show this help message

Environment Variables:
  UTILS_NATS_URL       NATS connection URL (default: nats://localhost:4222)
  UTILS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME  MongoDB database name (default: otter_consolidator)
  UTILS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s publish-demo
  %s publish-snapshot snapshot.json
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
