package scanner

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// Firefox moz_bookmarks.type values.
const (
	placesTypeBookmark = 1
	placesTypeFolder   = 2
)

// tagsRootGUID identifies the folder holding tags. Its descendants reference
// already-bookmarked places and are not bookmarks themselves.
const tagsRootGUID = "tags________"

type placesRow struct {
	id     int64
	parent int64
	kind   int
	title  string
	url    string
	guid   string
}

// readPlaces loads the bookmark tree of a Firefox places.sqlite database.
//
// Firefox holds an exclusive lock on the live database, so the file and its
// write-ahead log are copied to a temporary directory and read from there.
// Links are returned in pre-order as children of a single root folder.
func readPlaces(path string) ([]Node, error) {
	tmp, err := os.MkdirTemp("", "bmsearch-places-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	dbCopy := filepath.Join(tmp, "places.sqlite")
	if err := copyFile(path, dbCopy); err != nil {
		return nil, &readError{err: err}
	}
	if _, err := os.Stat(path + "-wal"); err == nil {
		if err := copyFile(path+"-wal", dbCopy+"-wal"); err != nil {
			return nil, &readError{err: err}
		}
	}

	db, err := sql.Open("sqlite", dbCopy)
	if err != nil {
		return nil, fmt.Errorf("open places database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT b.id, b.parent, b.type,
		       COALESCE(b.title, p.title, ''), COALESCE(p.url, ''),
		       COALESCE(b.guid, '')
		FROM moz_bookmarks b
		LEFT JOIN moz_places p ON p.id = b.fk
		ORDER BY b.parent, b.position, b.id`)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	children := make(map[int64][]placesRow)
	ids := make(map[int64]bool)
	for rows.Next() {
		var r placesRow
		if err := rows.Scan(&r.id, &r.parent, &r.kind, &r.title, &r.url, &r.guid); err != nil {
			return nil, fmt.Errorf("scan bookmark row: %w", err)
		}
		children[r.parent] = append(children[r.parent], r)
		ids[r.id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmark rows: %w", err)
	}

	// Roots are rows whose parent is not itself a bookmark row (id 1, parent 0
	// in every Firefox profile).
	var rootParents []int64
	for parent := range children {
		if !ids[parent] {
			rootParents = append(rootParents, parent)
		}
	}
	sort.Slice(rootParents, func(i, j int) bool { return rootParents[i] > rootParents[j] })

	var stack []placesRow
	for _, parent := range rootParents {
		kids := children[parent]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	root := Node{Type: NodeFolder, Name: "places"}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch r.kind {
		case placesTypeBookmark:
			root.Children = append(root.Children, Node{Type: NodeLink, Name: r.title, URL: r.url})
		case placesTypeFolder:
			if r.guid == tagsRootGUID {
				continue
			}
			kids := children[r.id]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}

	return []Node{root}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
