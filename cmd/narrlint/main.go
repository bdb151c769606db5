// Command narrlint walks a narrative graph and reports broken links, bad
// documents, missing narration and tuning nodes that cannot resolve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/milk9111/horizons/assets"
	"github.com/milk9111/horizons/config"
	"github.com/milk9111/horizons/narrative"
	"github.com/milk9111/horizons/narratives"
)

func main() {
	var (
		dir       string
		start     string
		baseURL   string
		assetRoot string
	)
	flag.StringVar(&dir, "dir", "narratives", "directory of node documents, read before the embedded copies")
	flag.StringVar(&start, "start", "", "node id to walk from (default the configured start node)")
	flag.StringVar(&baseURL, "base-url", "", "lint documents served from {base-url}/narratives/{id}.json instead")
	flag.StringVar(&assetRoot, "assets", assets.Root, "asset directory checked before the embedded assets")
	flag.Parse()

	if start == "" {
		cfg, err := config.Default()
		if err != nil {
			fmt.Fprintf(os.Stderr, "narrlint: %v\n", err)
			os.Exit(2)
		}
		start = cfg.StartNode
	}
	assets.Root = assetRoot

	var f narrative.Fetcher = &narrative.FSFetcher{Dir: dir, Embedded: narratives.NarrativesFS}
	if baseURL != "" {
		f = &narrative.HTTPFetcher{BaseURL: baseURL}
	}
	audio := func(ref string) error {
		_, err := assets.LoadAudio(assets.NarrationPath(ref))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	visited, issues := narrative.Lint(ctx, f, start, audio)

	for _, is := range issues {
		fmt.Println(is)
	}
	if baseURL == "" {
		for _, id := range narrative.Unreachable(knownIDs(dir), visited) {
			fmt.Printf("%s: unreachable from %s\n", id, start)
		}
	}

	fmt.Fprintf(os.Stderr, "narrlint: %d nodes reached from %s, %d issues\n", len(visited), start, len(issues))
	if len(issues) > 0 {
		os.Exit(1)
	}
}

// knownIDs lists node ids on disk and embedded.
func knownIDs(dir string) []string {
	seen := map[string]bool{}
	if ids, err := narratives.IDs(); err == nil {
		for _, id := range ids {
			seen[id] = true
		}
	}
	if matches, err := filepath.Glob(filepath.Join(dir, "*.json")); err == nil {
		for _, m := range matches {
			if id, ok := narrative.NodeIDFromPath(m); ok {
				seen[id] = true
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
