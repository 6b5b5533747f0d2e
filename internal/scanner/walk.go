package scanner

import "github.com/Aman-CERP/bmsearch/internal/bookmark"

// collect flattens the trees rooted at roots into records, in depth-first
// pre-order. An explicit stack keeps arbitrarily deep folders from growing
// the call stack.
func collect(browser, profile string, roots []Node) []bookmark.Record {
	var out []bookmark.Record

	stack := make([]*Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, &roots[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case n.IsLink():
			if bookmark.AcceptedURL(n.URL) {
				out = append(out, bookmark.Record{
					Title:   n.Name,
					URL:     n.URL,
					Browser: browser,
					Profile: profile,
				})
			}
		case n.IsFolder():
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, &n.Children[i])
			}
		}
		// Other node types (separators etc.) carry no bookmarks.
	}

	return out
}
