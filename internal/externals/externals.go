// Package externals implements the externals resolver of spec.md §4.2:
// given a list of search paths, it discovers µcad-extensioned files and
// builds a map of qualified name to file path, without loading them.
//
// Grounded on original_source/lang/resolve/externals.rs (Externals::new,
// fetch_external's longest-prefix match, mod-file directory handling).
// Rust's scan_dir crate is replaced with the standard library's
// filepath.WalkDir, the idiomatic Go equivalent the teacher itself
// reaches for when walking a filesystem (scala/main.go's os.ReadFile/
// filepath.Ext file-by-file handling, generalized here to a recursive
// walk since µcad's search paths are directory trees, not flat globs).
package externals

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcad/ucad/internal/ident"
)

// Extensions lists the recognized source file extensions (spec.md §6.1).
var Extensions = []string{"µcad", "ucad"}

// Kind classifies an externals resolution failure.
type Kind int

const (
	KindAmbiguousExternal Kind = iota
	KindExternalSymbolNotFound
	KindExternalPathNotFound
)

// ExternalsError reports an externals resolution failure.
type ExternalsError struct {
	Kind  Kind
	Name  ident.QualifiedName
	Paths []string
}

func (e *ExternalsError) Error() string {
	switch e.Kind {
	case KindAmbiguousExternal:
		return "ambiguous external for " + e.Name.String() + ": " + strings.Join(e.Paths, ", ")
	case KindExternalPathNotFound:
		return "path not indexed in externals: " + strings.Join(e.Paths, "")
	default:
		return "external symbol not found: " + e.Name.String()
	}
}

// Externals is a map of qualified name to source file path, built once
// by scanning a set of search paths.
type Externals struct {
	byName map[string]ident.QualifiedName
	byPath map[string]string // name.Key() -> path
	nameOf map[string]ident.QualifiedName
}

// New scans search paths recursively for recognized µcad files and
// indexes them by the qualified name their location implies. A file
// "<dir>/a/b.µcad" contributes "a::b"; a directory containing a
// "mod.<ext>" file contributes the directory's own name.
func New(searchPaths []string) (*Externals, error) {
	e := &Externals{
		byName: map[string]ident.QualifiedName{},
		byPath: map[string]string{},
		nameOf: map[string]ident.QualifiedName{},
	}
	if len(searchPaths) == 0 {
		log.Printf("externals: no search paths given")
		return e, nil
	}
	for _, root := range searchPaths {
		if err := e.scan(root); err != nil {
			return nil, err
		}
	}
	if len(e.byPath) == 0 {
		log.Printf("externals: no externals found in any search path")
	} else {
		log.Printf("externals: found %d external modules", len(e.byPath))
	}
	return e, nil
}

func (e *Externals) scan(root string) error {
	modDirs := map[string]string{} // dir -> mod file path, to suppress per-file entries under it

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isModFile(path) {
			return nil
		}
		dir := filepath.Dir(path)
		if existing, ok := modDirs[dir]; ok && existing != path {
			return &ExternalsError{Kind: KindAmbiguousExternal, Paths: []string{existing, path}}
		}
		modDirs[dir] = path
		return nil
	})
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !hasExtension(path) {
			return nil
		}
		dir := filepath.Dir(path)
		if modPath, ok := modDirs[dir]; ok {
			if path != modPath {
				return nil // a mod.<ext> file speaks for its whole directory
			}
			return e.index(root, dir)
		}
		if isModFile(path) {
			return nil // handled by the directory branch above
		}
		return e.index(root, trimExtension(path))
	})
}

func (e *Externals) index(root, pathNoExt string) error {
	rel, err := filepath.Rel(root, pathNoExt)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	name := ident.Parse(strings.ReplaceAll(rel, "/", "::"))
	key := name.Key()
	if existingPath, ok := e.byPath[key]; ok {
		return &ExternalsError{Kind: KindAmbiguousExternal, Name: name, Paths: []string{existingPath, pathNoExt}}
	}
	e.byName[key] = name
	e.byPath[key] = actualFileFor(pathNoExt)
	e.nameOf[actualFileFor(pathNoExt)] = name
	return nil
}

// actualFileFor resolves the no-extension path back to its real file on
// disk by trying each recognized extension, and for a mod directory
// each recognized mod.<ext> file inside it. Used because the map keys
// by the extension-stripped path, mirroring the Rust
// with_extension("") indexing.
func actualFileFor(pathNoExt string) string {
	for _, ext := range Extensions {
		candidate := pathNoExt + "." + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	for _, ext := range Extensions {
		candidate := filepath.Join(pathNoExt, "mod."+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return pathNoExt
}

func hasExtension(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isModFile(path string) bool {
	if !hasExtension(path) {
		return false
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) == "mod"
}

func trimExtension(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// NameForPath returns the qualified name a previously scanned path was
// indexed under.
func (e *Externals) NameForPath(path string) (ident.QualifiedName, bool) {
	name, ok := e.nameOf[path]
	return name, ok
}

// GetName is NameForPath's error-returning counterpart, matching
// original_source/lang/resolve/externals.rs's get_name contract
// directly for callers that want a diagnosable error.
func (e *Externals) GetName(path string) (ident.QualifiedName, error) {
	if name, ok := e.nameOf[path]; ok {
		return name, nil
	}
	return ident.QualifiedName{}, &ExternalsError{Kind: KindExternalPathNotFound, Paths: []string{path}}
}

// Fetch searches for the external file that may define name, returning
// the longest indexed name that is a prefix of (or equal to) it — the
// most specific file that could contain the requested symbol.
func (e *Externals) Fetch(name ident.QualifiedName) (ident.QualifiedName, string, bool) {
	best, path, err := e.FetchExternal(name)
	if err != nil {
		return ident.QualifiedName{}, "", false
	}
	return best, path, true
}

// FetchExternal is Fetch's error-returning counterpart, for callers
// (cmd/ucad's resolve loop) that want to report
// ExternalSymbolNotFound as a diagnostic rather than a bool.
func (e *Externals) FetchExternal(name ident.QualifiedName) (ident.QualifiedName, string, error) {
	var best ident.QualifiedName
	var bestPath string
	bestLen := -1
	for key, candidate := range e.byName {
		if !name.IsSubOf(candidate) {
			continue
		}
		if candidate.Len() > bestLen {
			bestLen = candidate.Len()
			best = candidate
			bestPath = e.byPath[key]
		}
	}
	if bestLen < 0 {
		return ident.QualifiedName{}, "", &ExternalsError{Kind: KindExternalSymbolNotFound, Name: name}
	}
	return best, bestPath, nil
}

// Names returns the sorted list of all indexed qualified names, for
// display/debugging (original_source's Display impl, sorted for
// readability).
func (e *Externals) Names() []string {
	names := make([]string, 0, len(e.byName))
	for _, n := range e.byName {
		names = append(names, n.String())
	}
	sort.Strings(names)
	return names
}
