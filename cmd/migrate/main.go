// Command migrate upgrades cached report documents on disk to the current
// schema. Legacy v1 files (the flat "linhas" map) are decoded through the
// migration adapter and rewritten as v2; current files are left untouched.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/logger"
)

var (
	cacheDir = flag.String("cache-dir", "cache", "Report cache directory")
	dryRun   = flag.Bool("dry-run", false, "Report what would change without rewriting files")
)

func main() {
	flag.Parse()
	log := logger.New()

	migrated, skipped, err := migrateDir(*cacheDir, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *cacheDir).Msg("Migration failed")
	}

	if migrated == 0 {
		fmt.Println("No legacy documents found. Cache is up to date.")
	} else if *dryRun {
		fmt.Printf("Would migrate %d document(s), %d already current.\n", migrated, skipped)
	} else {
		fmt.Printf("Migrated %d document(s), %d already current.\n", migrated, skipped)
	}
}

// migrateDir walks dir and upgrades every legacy JSON document in place.
// Returns counts of migrated and already-current files.
func migrateDir(dir string, dryRun bool) (migrated, skipped int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return migrated, skipped, fmt.Errorf("reading %s: %w", path, err)
		}

		var probe struct {
			SchemaVersion int `json:"schema_version"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return migrated, skipped, fmt.Errorf("probing %s: %w", path, err)
		}
		if probe.SchemaVersion >= cache.SchemaVersion {
			skipped++
			continue
		}

		doc, err := cache.Decode(data)
		if err != nil {
			return migrated, skipped, fmt.Errorf("migrating %s: %w", path, err)
		}

		if dryRun {
			fmt.Printf("  [DRY]  %s (%s, %s)\n", entry.Name(), doc.Empresa, doc.Tipo)
			migrated++
			continue
		}

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return migrated, skipped, fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return migrated, skipped, fmt.Errorf("writing %s: %w", path, err)
		}

		fmt.Printf("  [OK]   %s (%s, %s)\n", entry.Name(), doc.Empresa, doc.Tipo)
		migrated++
	}

	return migrated, skipped, nil
}
