// Command migrate-gen generates a SQL script creating every commit partition.
//
// Usage:
//
//	go run github.com/getpup/pupcommits/cmd/migrate-gen -contexts Collaboration,Billing -output migrations
//
// Or with go generate:
//
//	//go:generate go run github.com/getpup/pupcommits/cmd/migrate-gen -contexts Collaboration -output migrations
//
// Generate scripts for different databases:
//
//	go run github.com/getpup/pupcommits/cmd/migrate-gen -dialect postgres -contexts Collaboration
//	go run github.com/getpup/pupcommits/cmd/migrate-gen -dialect mysql -contexts Collaboration
//	go run github.com/getpup/pupcommits/cmd/migrate-gen -dialect sqlite -contexts Collaboration -chunk-length 1
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/getpup/pupcommits/es/migrations"
	"github.com/getpup/pupcommits/es/partition"
)

func main() {
	var (
		dialectName    = flag.String("dialect", "postgres", "SQL dialect: postgres, mysql, or sqlite")
		contexts       = flag.String("contexts", "", "Comma separated bounded contexts (required)")
		chunkLength    = flag.Int("chunk-length", partition.DefaultChunkLength, "Trailing identity symbols per partition")
		outputFolder   = flag.String("output", "migrations", "Output folder for migration file")
		outputFilename = flag.String("filename", "", "Output filename (default: timestamp-based)")
	)

	flag.Parse()

	dialect, err := migrations.ParseDialect(*dialectName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	registry := partition.NewRegistry()
	for _, bc := range strings.Split(*contexts, ",") {
		if bc = strings.TrimSpace(bc); bc != "" {
			registry.Register(bc, partition.TablePerAggregateIDGroup{ChunkLength: *chunkLength})
		}
	}
	if len(registry.BoundedContexts()) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -contexts is required")
		os.Exit(1)
	}

	config := migrations.DefaultConfig()
	config.OutputFolder = *outputFolder
	config.Dialect = dialect
	config.Registry = registry
	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	}

	if err := migrations.Generate(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s migration for %d partitions: %s/%s\n",
		dialect, len(registry.Partitions()), config.OutputFolder, config.OutputFilename)
}
