// Package scanner discovers browser bookmark stores, parses each into a
// folder/link tree and flattens the links into bookmark records.
//
// Scanning never fails as a whole: a missing directory, a missing file or a
// store that cannot be parsed only removes that store from the result.
package scanner

import "strings"

// Format identifies the on-disk encoding of a bookmark store.
type Format string

const (
	// FormatChromiumJSON is the JSON "Bookmarks" file used by Chromium-based browsers.
	FormatChromiumJSON Format = "chromium-json"
	// FormatFirefoxPlaces is the places.sqlite database used by Firefox.
	FormatFirefoxPlaces Format = "firefox-places"
)

// Layout describes how profiles are arranged under a family's base directory.
type Layout int

const (
	// LayoutMultiProfile has a "Default" directory plus "Profile N" directories.
	LayoutMultiProfile Layout = iota
	// LayoutSingleProfile keeps the store directly in the base directory.
	LayoutSingleProfile
	// LayoutProfileDirs has one "<salt>.<name>" directory per profile.
	LayoutProfileDirs
)

// Family is a browser family sharing one storage layout and format.
type Family struct {
	Name   string
	Layout Layout
	Format Format
}

// Supported browser families.
var (
	Chrome   = Family{Name: "Chrome", Layout: LayoutMultiProfile, Format: FormatChromiumJSON}
	Edge     = Family{Name: "Edge", Layout: LayoutMultiProfile, Format: FormatChromiumJSON}
	Opera    = Family{Name: "Opera", Layout: LayoutSingleProfile, Format: FormatChromiumJSON}
	OperaGX  = Family{Name: "OperaGX", Layout: LayoutSingleProfile, Format: FormatChromiumJSON}
	Brave    = Family{Name: "Brave", Layout: LayoutMultiProfile, Format: FormatChromiumJSON}
	Vivaldi  = Family{Name: "Vivaldi", Layout: LayoutMultiProfile, Format: FormatChromiumJSON}
	Chromium = Family{Name: "Chromium", Layout: LayoutMultiProfile, Format: FormatChromiumJSON}
	Firefox  = Family{Name: "Firefox", Layout: LayoutProfileDirs, Format: FormatFirefoxPlaces}
)

// DefaultFamilies returns every supported family in scan order.
func DefaultFamilies() []Family {
	return []Family{Chrome, Edge, Opera, OperaGX, Brave, Vivaldi, Chromium, Firefox}
}

// FamilyByName looks up a family ignoring case, spaces and dashes,
// so "opera-gx", "Opera GX" and "operagx" all match OperaGX.
func FamilyByName(name string) (Family, bool) {
	key := familyKey(name)
	for _, f := range DefaultFamilies() {
		if familyKey(f.Name) == key {
			return f, true
		}
	}
	return Family{}, false
}

func familyKey(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(name))
}

// Source is one candidate bookmark-store file.
type Source struct {
	Browser string `json:"browser"`
	Profile string `json:"profile"`
	Path    string `json:"path"`
	Format  Format `json:"format"`
}

// SourceStatus is the outcome of reading one Source.
type SourceStatus string

const (
	StatusOK         SourceStatus = "ok"
	StatusMissing    SourceStatus = "missing"
	StatusMalformed  SourceStatus = "malformed"
	StatusUnreadable SourceStatus = "unreadable"
)

// SourceReport describes what a scan found at one Source.
type SourceReport struct {
	Source
	Status  SourceStatus `json:"status"`
	Records int          `json:"records"`
}

// Node types in a bookmark tree.
const (
	NodeFolder = "folder"
	NodeLink   = "url"
)

// Node is one element of a bookmark tree: a folder with ordered children or
// a link with a URL. Chromium's JSON nodes decode into it directly.
type Node struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// IsFolder reports whether n is a folder node.
func (n Node) IsFolder() bool { return n.Type == NodeFolder }

// IsLink reports whether n is a link node.
func (n Node) IsLink() bool { return n.Type == NodeLink }
