package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoplay/pkg/sharedTypes"
)

var playableExt = map[string]bool{
	".mpg": true, ".mpeg": true, ".mp4": true, ".3gp": true, ".mkv": true, ".webm": true,
}

// ListLocalFeed lists playable files in dir, sorted by name.
func ListLocalFeed(dir string) (sharedTypes.Feed, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return sharedTypes.Feed{}, err
	}
	feed := sharedTypes.Feed{Title: filepath.Base(dir), Folder: dir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !playableExt[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		feed.Items = append(feed.Items, sharedTypes.FeedItem{
			Id:     sharedTypes.ItemID(name),
			Title:  strings.TrimSuffix(name, filepath.Ext(name)),
			Source: filepath.Join(dir, name),
		})
	}
	sort.Slice(feed.Items, func(i, j int) bool { return feed.Items[i].Id < feed.Items[j].Id })
	return feed, nil
}
