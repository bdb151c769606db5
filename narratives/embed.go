// Package narratives embeds the node documents shipped with the game.
package narratives

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.json
var NarrativesFS embed.FS

// IDs lists the embedded node ids in sorted order.
func IDs() ([]string, error) {
	entries, err := fs.ReadDir(NarrativesFS, ".")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
