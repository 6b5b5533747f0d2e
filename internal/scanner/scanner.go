package scanner

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/bmsearch/internal/bookmark"
	bmerrors "github.com/Aman-CERP/bmsearch/internal/errors"
)

// Store file names per format.
const (
	chromiumStoreFile = "Bookmarks"
	placesStoreFile   = "places.sqlite"
	defaultProfile    = "Default"
	profileDirPrefix  = "Profile "
)

// Options configures a Scanner.
type Options struct {
	// Resolver supplies base directories. Nil means the platform defaults.
	Resolver PathResolver

	// Families lists the browser families to scan, in order.
	// Nil means DefaultFamilies().
	Families []Family
}

// Scanner locates and reads bookmark stores.
type Scanner struct {
	resolver PathResolver
	families []Family
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	if opts.Resolver == nil {
		opts.Resolver = NewEnvResolver()
	}
	if opts.Families == nil {
		opts.Families = DefaultFamilies()
	}
	return &Scanner{
		resolver: opts.Resolver,
		families: opts.Families,
	}
}

// Families returns the families this scanner reads, in scan order.
func (s *Scanner) Families() []Family {
	return append([]Family(nil), s.families...)
}

// Scan reads every reachable bookmark store and returns the flattened
// records in family, profile, then tree pre-order. It never fails.
func (s *Scanner) Scan() []bookmark.Record {
	records, _ := s.ScanWithReport()
	return records
}

// ScanWithReport is Scan plus a per-store account of what was found.
func (s *Scanner) ScanWithReport() ([]bookmark.Record, []SourceReport) {
	type familyResult struct {
		records []bookmark.Record
		reports []SourceReport
	}
	results := make([]familyResult, len(s.families))

	// Families are independent; each goroutine owns one slot so the
	// concatenation below keeps family order.
	var g errgroup.Group
	for i, fam := range s.families {
		g.Go(func() error {
			for _, src := range s.familySources(fam) {
				recs, status := readSource(src)
				results[i].records = append(results[i].records, recs...)
				results[i].reports = append(results[i].reports, SourceReport{
					Source:  src,
					Status:  status,
					Records: len(recs),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	var records []bookmark.Record
	var reports []SourceReport
	for _, r := range results {
		records = append(records, r.records...)
		reports = append(reports, r.reports...)
	}
	return records, reports
}

// Sources lists every candidate store file for the configured families,
// whether or not the file currently exists.
func (s *Scanner) Sources() []Source {
	var out []Source
	for _, fam := range s.families {
		out = append(out, s.familySources(fam)...)
	}
	return out
}

// WatchPaths lists the files whose changes should trigger a rescan.
func (s *Scanner) WatchPaths() []string {
	var paths []string
	for _, src := range s.Sources() {
		paths = append(paths, src.Path)
		if src.Format == FormatFirefoxPlaces {
			paths = append(paths, src.Path+"-wal")
		}
	}
	return paths
}

// familySources resolves the candidate store files of one family.
func (s *Scanner) familySources(fam Family) []Source {
	base, ok := s.resolver.BaseDir(fam)
	if !ok {
		slog.Debug("no base directory for browser",
			bmerrors.LogAttrs(bmerrors.New(bmerrors.ErrCodeUnsupportedEnvironment,
				"browser has no location on this host", nil).WithDetail("browser", fam.Name))...)
		return nil
	}

	source := func(profile, dir, file string) Source {
		return Source{
			Browser: fam.Name,
			Profile: profile,
			Path:    filepath.Join(dir, file),
			Format:  fam.Format,
		}
	}

	switch fam.Layout {
	case LayoutSingleProfile:
		return []Source{source(defaultProfile, base, chromiumStoreFile)}

	case LayoutMultiProfile:
		out := []Source{source(defaultProfile, filepath.Join(base, defaultProfile), chromiumStoreFile)}
		for _, e := range listDirs(base) {
			if strings.HasPrefix(e, profileDirPrefix) {
				out = append(out, source(e, filepath.Join(base, e), chromiumStoreFile))
			}
		}
		return out

	case LayoutProfileDirs:
		var out []Source
		for _, e := range listDirs(base) {
			dir := filepath.Join(base, e)
			if _, err := os.Stat(filepath.Join(dir, placesStoreFile)); err != nil {
				continue
			}
			out = append(out, source(firefoxProfileName(e), dir, placesStoreFile))
		}
		return out
	}
	return nil
}

// listDirs returns the names of the subdirectories of dir, sorted.
// A missing or unreadable dir yields nothing.
func listDirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// firefoxProfileName turns "k3j2x9.default-release" into "default-release".
func firefoxProfileName(dir string) string {
	if _, name, ok := strings.Cut(dir, "."); ok && name != "" {
		return name
	}
	return dir
}

// readError marks a failure to read the store, as opposed to parse it.
type readError struct{ err error }

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// readSource reads and flattens one store. Every failure is absorbed here.
func readSource(src Source) ([]bookmark.Record, SourceStatus) {
	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, StatusMissing
		}
		logSkip(bmerrors.New(bmerrors.ErrCodeSourcePermission, "bookmark store not accessible", err), src)
		return nil, StatusUnreadable
	}

	var roots []Node
	var err error
	switch src.Format {
	case FormatChromiumJSON:
		var data []byte
		data, err = os.ReadFile(src.Path)
		if err != nil {
			err = &readError{err: err}
			break
		}
		roots, err = parseChromium(data)
	case FormatFirefoxPlaces:
		roots, err = readPlaces(src.Path)
	}

	if err != nil {
		var re *readError
		if errors.As(err, &re) {
			logSkip(bmerrors.New(bmerrors.ErrCodeSourcePermission, "bookmark store not readable", err), src)
			return nil, StatusUnreadable
		}
		logSkip(bmerrors.SourceMalformed(src.Path, err), src)
		return nil, StatusMalformed
	}

	return collect(src.Browser, src.Profile, roots), StatusOK
}

func logSkip(err *bmerrors.BMError, src Source) {
	attrs := append([]any{
		slog.String("browser", src.Browser),
		slog.String("profile", src.Profile),
		slog.String("path", src.Path),
	}, bmerrors.LogAttrs(err)...)
	slog.Debug("skipping bookmark store", attrs...)
}
