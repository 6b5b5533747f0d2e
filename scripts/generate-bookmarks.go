//go:build ignore

// Package main generates a synthetic Chromium bookmark store for benchmarking.
// Usage: go run scripts/generate-bookmarks.go -links 10000 -output testdata/bench
//
// Point a config root at the output directory (browsers.roots.opera) to scan it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numLinks  = flag.Int("links", 10000, "Number of links to generate")
	maxDepth  = flag.Int("depth", 4, "Maximum folder nesting depth")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	latinWords = []string{
		"github", "issues", "golang", "weekly", "release", "notes", "docs", "api",
		"search", "design", "review", "dashboard", "metrics", "tracing", "handbook",
	}
	hanWords = []string{"百度", "地图", "知乎", "新闻", "文档", "音乐", "视频", "天气"}
	hosts    = []string{"github.com", "go.dev", "example.org", "baidu.com", "zhihu.com", "wikipedia.org"}
)

type node struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Children []node `json:"children,omitempty"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	bar := node{Type: "folder", Name: "Bookmarks bar"}
	other := node{Type: "folder", Name: "Other bookmarks"}
	for i := 0; i < *numLinks; i++ {
		root := &bar
		if i%3 == 0 {
			root = &other
		}
		insert(rng, root, link(rng, i), rng.Intn(*maxDepth+1))
	}

	store := map[string]any{
		"version": 1,
		"roots":   map[string]node{"bookmark_bar": bar, "other": other},
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	data, err := json.Marshal(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding store: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(*outputDir, "Bookmarks")
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d links in %s (%d bytes).\n", *numLinks, path, len(data))
}

func link(rng *rand.Rand, i int) node {
	title := fmt.Sprintf("%s %s", pick(rng, latinWords), pick(rng, latinWords))
	if rng.Intn(4) == 0 {
		title = pick(rng, hanWords) + pick(rng, hanWords)
	}
	return node{
		Type: "url",
		Name: title,
		URL:  fmt.Sprintf("https://%s/%s/%d", pick(rng, hosts), pick(rng, latinWords), i),
	}
}

// insert places n depth folders below f, reusing the last folder at each level.
func insert(rng *rand.Rand, f *node, n node, depth int) {
	for ; depth > 0; depth-- {
		last := len(f.Children) - 1
		if last < 0 || f.Children[last].Type != "folder" || rng.Intn(8) == 0 {
			f.Children = append(f.Children, node{Type: "folder", Name: pick(rng, latinWords)})
			last = len(f.Children) - 1
		}
		f = &f.Children[last]
	}
	f.Children = append(f.Children, n)
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
