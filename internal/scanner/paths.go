package scanner

import (
	"os"
	"path/filepath"
	"runtime"
)

// PathResolver supplies the base directory holding a browser family's
// profiles. A false result means the family has no location on this host,
// which is not an error.
type PathResolver interface {
	BaseDir(f Family) (string, bool)
}

// StaticResolver maps family names to fixed base directories.
type StaticResolver map[string]string

// BaseDir implements PathResolver.
func (s StaticResolver) BaseDir(f Family) (string, bool) {
	dir, ok := s[f.Name]
	return dir, ok && dir != ""
}

// OverrideResolver consults Overrides first and falls back to Base.
type OverrideResolver struct {
	Overrides StaticResolver
	Base      PathResolver
}

// BaseDir implements PathResolver.
func (o OverrideResolver) BaseDir(f Family) (string, bool) {
	if dir, ok := o.Overrides.BaseDir(f); ok {
		return dir, true
	}
	if o.Base == nil {
		return "", false
	}
	return o.Base.BaseDir(f)
}

// EnvResolver derives base directories from the platform's conventional
// application data locations.
type EnvResolver struct {
	GOOS    string
	Getenv  func(string) string
	HomeDir func() (string, error)
}

// NewEnvResolver returns an EnvResolver for the running process.
func NewEnvResolver() EnvResolver {
	return EnvResolver{
		GOOS:    runtime.GOOS,
		Getenv:  os.Getenv,
		HomeDir: os.UserHomeDir,
	}
}

type platformDir struct {
	anchor string // env var, "~" for home, or "xdg" for the XDG config dir
	rel    string
}

var platformDirs = map[string]map[string]platformDir{
	"windows": {
		"Chrome":   {"LOCALAPPDATA", "Google/Chrome/User Data"},
		"Edge":     {"LOCALAPPDATA", "Microsoft/Edge/User Data"},
		"Brave":    {"LOCALAPPDATA", "BraveSoftware/Brave-Browser/User Data"},
		"Vivaldi":  {"LOCALAPPDATA", "Vivaldi/User Data"},
		"Chromium": {"LOCALAPPDATA", "Chromium/User Data"},
		"Opera":    {"APPDATA", "Opera Software/Opera Stable"},
		"OperaGX":  {"APPDATA", "Opera Software/Opera GX Stable"},
		"Firefox":  {"APPDATA", "Mozilla/Firefox/Profiles"},
	},
	"darwin": {
		"Chrome":   {"~", "Library/Application Support/Google/Chrome"},
		"Edge":     {"~", "Library/Application Support/Microsoft Edge"},
		"Brave":    {"~", "Library/Application Support/BraveSoftware/Brave-Browser"},
		"Vivaldi":  {"~", "Library/Application Support/Vivaldi"},
		"Chromium": {"~", "Library/Application Support/Chromium"},
		"Opera":    {"~", "Library/Application Support/com.operasoftware.Opera"},
		"OperaGX":  {"~", "Library/Application Support/com.operasoftware.OperaGX"},
		"Firefox":  {"~", "Library/Application Support/Firefox/Profiles"},
	},
	"linux": {
		"Chrome":   {"xdg", "google-chrome"},
		"Edge":     {"xdg", "microsoft-edge"},
		"Brave":    {"xdg", "BraveSoftware/Brave-Browser"},
		"Vivaldi":  {"xdg", "vivaldi"},
		"Chromium": {"xdg", "chromium"},
		"Opera":    {"xdg", "opera"},
		"Firefox":  {"~", ".mozilla/firefox"},
	},
}

// BaseDir implements PathResolver.
func (r EnvResolver) BaseDir(f Family) (string, bool) {
	pd, ok := platformDirs[r.GOOS][f.Name]
	if !ok {
		return "", false
	}

	var anchor string
	switch pd.anchor {
	case "~":
		anchor = r.home()
	case "xdg":
		anchor = r.getenv("XDG_CONFIG_HOME")
		if anchor == "" {
			if home := r.home(); home != "" {
				anchor = filepath.Join(home, ".config")
			}
		}
	default:
		anchor = r.getenv(pd.anchor)
	}
	if anchor == "" {
		return "", false
	}
	return filepath.Join(anchor, filepath.FromSlash(pd.rel)), true
}

func (r EnvResolver) getenv(key string) string {
	if r.Getenv == nil {
		return ""
	}
	return r.Getenv(key)
}

func (r EnvResolver) home() string {
	if r.HomeDir == nil {
		return ""
	}
	home, err := r.HomeDir()
	if err != nil {
		return ""
	}
	return home
}
