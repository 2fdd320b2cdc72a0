// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

// Command slugmap generates the slug → filename map consumed by the server.
//
// It walks a directory of series JSON records, slugifies each record's title
// (falling back to the filename stem), and writes the resulting map as JSON.
// An optional overrides file lets specific slugs be pinned by hand.
//
// The map is regenerated whenever content is authored; the server loads it
// once at startup.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lesporoiniens/portal/pkg/slug"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	seriesDir := flag.String("series", "./data/series", "directory of series JSON records")
	outPath := flag.String("out", "./data/slugmap.json", "output path for the slug map")
	overridesPath := flag.String("overrides", "", "optional JSON file of slug overrides")
	flag.Parse()

	entries, err := os.ReadDir(*seriesDir)
	if err != nil {
		log.Error("read series directory", slog.Any("error", err))
		os.Exit(1)
	}

	slugMap := map[string]string{}
	conflicts := 0

	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(filename), ".json") {
			continue
		}

		title := readTitle(filepath.Join(*seriesDir, filename), log)
		if title == "" {
			title = strings.TrimSuffix(filename, filepath.Ext(filename))
		}

		key := slug.From(title)
		if key == "" {
			continue
		}

		if existing, ok := slugMap[key]; ok && existing != filename {
			conflicts++
			log.Warn("slug conflict, keeping first",
				slog.String("slug", key),
				slog.String("kept", existing),
				slog.String("dropped", filename),
			)
			continue
		}
		slugMap[key] = filename

		// The filename stem is a secondary alias so legacy links keep working.
		if alias := slug.From(strings.TrimSuffix(filename, filepath.Ext(filename))); alias != "" && alias != key {
			if _, taken := slugMap[alias]; !taken {
				slugMap[alias] = filename
			}
		}
	}

	if *overridesPath != "" {
		applyOverrides(*overridesPath, slugMap, log)
	}

	payload, err := json.MarshalIndent(slugMap, "", "  ")
	if err != nil {
		log.Error("encode slug map", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, payload, 0o644); err != nil {
		log.Error("write slug map", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("slug map written",
		slog.String("path", *outPath),
		slog.Int("entries", len(slugMap)),
		slog.Int("conflicts", conflicts),
	)
}

// readTitle extracts the title field of one series record, or "".
func readTitle(path string, log *slog.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("unreadable record", slog.String("path", path), slog.Any("error", err))
		return ""
	}

	var record struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		log.Warn("malformed record", slog.String("path", path), slog.Any("error", err))
		return ""
	}

	return strings.TrimSpace(record.Title)
}

// applyOverrides merges hand-pinned slug entries over the generated map.
func applyOverrides(path string, slugMap map[string]string, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("overrides unreadable", slog.String("path", path), slog.Any("error", err))
		return
	}

	overrides := map[string]string{}
	if err := json.Unmarshal(data, &overrides); err != nil {
		log.Warn("overrides malformed", slog.String("path", path), slog.Any("error", err))
		return
	}

	for key, filename := range overrides {
		slugMap[key] = filename
	}
}
