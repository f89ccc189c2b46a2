// Package hints turns common deck conversion failures into one-line
// suggestions appended to the error message as "\n  hint: <text>".
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2slides/internal/fileutil"
)

// IsInContainer reports whether the process runs in a Docker container.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciVariables are set by the CI systems where Chrome usually needs
// ROD_NO_SANDBOX.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// list collects suggestions and renders them as one hint line.
type list []string

func (l *list) add(s string) { *l = append(*l, s) }

func (l list) String() string {
	if len(l) == 0 {
		return ""
	}
	return "\n  hint: " + strings.Join(l, "; ")
}

// ForBrowserConnect suggests how to get Chrome running for PDF printing,
// or how to skip it.
func ForBrowserConnect() string {
	var l list
	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		l.add("set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		l.add("set ROD_BROWSER_BIN to use custom Chrome")
	}
	if len(l) > 0 {
		l.add("--html-only writes the deck without a browser")
	}
	return l.String()
}

func inCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForTimeout points at the print timeout and the diagram request timeout.
func ForTimeout() string {
	return list{"for long decks raise --timeout; for slow diagram renders raise --diagram-timeout"}.String()
}

// ForConfigNotFound suggests --config, or creating the per-user config file
// when one of searchedPaths lives in the go-md2slides config directory.
func ForConfigNotFound(searchedPaths []string) string {
	l := list{"use --config /path/to/file.yaml"}
	for _, p := range searchedPaths {
		if filepath.Base(filepath.Dir(filepath.FromSlash(strings.ReplaceAll(p, `\`, "/")))) == "go-md2slides" {
			l[0] += " or create " + p
			break
		}
	}
	return l.String()
}

// ForOutputDirectory covers deck output directories that cannot be created.
func ForOutputDirectory() string {
	return list{"check parent directory exists and is writable"}.String()
}

// ForStyleNotFound lists the built-in styles and where custom ones are read.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return list{
		"available: " + strings.Join(available, ", "),
		"custom styles are read from <asset-path>/styles/<name>.css",
	}.String()
}

// ForDiagramFailures points at the render endpoint. Failed diagrams are
// left out of the deck, so this never accompanies a fatal error.
func ForDiagramFailures(endpoint string) string {
	if endpoint == "" {
		return list{"check network access to the diagram renderer or set --diagram-url"}.String()
	}
	return list{"check that " + endpoint + " is reachable or set --diagram-url"}.String()
}
