// Package sourcecache implements the source file register described in
// spec.md §4.1: loaded source files indexed by content hash, file path
// and qualified name, so diagnostics and the resolver can map a SrcRef
// back to its owning file.
//
// Grounded on original_source/lang/eval/source_cache.rs (SourceCache's
// by_hash/by_path/by_name index triple and its insert/get_by_* methods).
package sourcecache

import (
	"hash/fnv"
	"log"

	"github.com/microcad/ucad/internal/ident"
	"github.com/microcad/ucad/internal/syntax"
)

// HashSource computes the stable 64-bit content hash spec.md §4.1
// requires ("stable across runs on identical bytes"). fnv64a is used
// rather than a cryptographic hash because this is an in-memory
// identity hash for a single run, not a cache-busting key against a
// distributed binary.
func HashSource(source string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(source))
	return h.Sum64()
}

// Kind classifies a Cache lookup failure.
type Kind int

const (
	KindFileNotFound Kind = iota
	KindSymbolMustBeLoaded
	KindUnknownHash
	KindUnknownPath
)

func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "file-not-found"
	case KindSymbolMustBeLoaded:
		return "symbol-must-be-loaded"
	case KindUnknownHash:
		return "unknown-hash"
	case KindUnknownPath:
		return "unknown-path"
	default:
		return "unknown"
	}
}

// CacheError reports a lookup failure against the cache. For
// KindSymbolMustBeLoaded, Name and Path identify the external file the
// caller must load and reinsert before retrying.
type CacheError struct {
	Kind Kind
	Name ident.QualifiedName
	Path string
	Hash uint64
}

func (e *CacheError) Error() string {
	switch e.Kind {
	case KindSymbolMustBeLoaded:
		return "symbol " + e.Name.String() + " must be loaded from " + e.Path
	case KindUnknownHash:
		return "unknown source hash"
	case KindUnknownPath:
		return "unknown path: " + e.Path
	default:
		return "file not found: " + e.Path
	}
}

// Externals is the subset of internal/externals's resolver that the
// cache needs: a name for a path, and a path for a name it hasn't
// loaded yet. Kept as an interface here (rather than importing
// internal/externals directly) so sourcecache stays the lower-level
// package in the dependency order.
type Externals interface {
	NameForPath(path string) (ident.QualifiedName, bool)
	Fetch(name ident.QualifiedName) (ident.QualifiedName, string, bool)
}

// Cache is the register of loaded source files and their syntax trees.
type Cache struct {
	externals Externals

	byHash map[uint64]*syntax.SourceFile
	byPath map[string]*syntax.SourceFile
	byName map[string]*syntax.SourceFile

	nameByHash map[uint64]ident.QualifiedName
	files      []*syntax.SourceFile
}

// New creates a cache seeded with the root source file. The root is
// retrievable by hash and path but, per spec.md §4.1, not by qualified
// name unless it is also indexed in externals.
func New(root *syntax.SourceFile, externals Externals) *Cache {
	c := &Cache{
		externals:  externals,
		byHash:     map[uint64]*syntax.SourceFile{root.Hash: root},
		byPath:     map[string]*syntax.SourceFile{root.Filename: root},
		byName:     map[string]*syntax.SourceFile{},
		nameByHash: map[uint64]ident.QualifiedName{},
		files:      []*syntax.SourceFile{root},
	}
	if name, ok := externals.NameForPath(root.Filename); ok {
		c.byName[name.Key()] = root
		c.nameByHash[root.Hash] = name
	}
	return c
}

// Insert adds a parsed source file to the cache, indexed by hash, path
// and qualified name. Re-inserting an already-known hash is a no-op,
// matching spec.md §4.1's idempotence requirement.
func (c *Cache) Insert(file *syntax.SourceFile) (ident.QualifiedName, error) {
	if name, ok := c.nameByHash[file.Hash]; ok {
		return name, nil
	}
	name, ok := c.externals.NameForPath(file.Filename)
	if !ok {
		return ident.QualifiedName{}, &CacheError{Kind: KindFileNotFound, Path: file.Filename}
	}
	log.Printf("sourcecache: caching [%d] %s %#x %s", len(c.files), name, file.Hash, file.Filename)
	c.files = append(c.files, file)
	c.byHash[file.Hash] = file
	c.byPath[file.Filename] = file
	c.byName[name.Key()] = file
	c.nameByHash[file.Hash] = name
	return name, nil
}

// GetByPath returns the file stored under the given path.
func (c *Cache) GetByPath(path string) (*syntax.SourceFile, error) {
	if f, ok := c.byPath[path]; ok {
		return f, nil
	}
	return nil, &CacheError{Kind: KindFileNotFound, Path: path}
}

// GetByHash returns the file stored under the given content hash.
func (c *Cache) GetByHash(hash uint64) (*syntax.SourceFile, error) {
	if f, ok := c.byHash[hash]; ok {
		return f, nil
	}
	return nil, &CacheError{Kind: KindUnknownHash, Hash: hash}
}

// GetByName returns the file indexed under the given qualified name. If
// the name is not yet loaded but is known to the externals index, it
// returns KindSymbolMustBeLoaded naming the path the caller must parse
// and Insert before retrying.
func (c *Cache) GetByName(name ident.QualifiedName) (*syntax.SourceFile, error) {
	if f, ok := c.byName[name.Key()]; ok {
		return f, nil
	}
	resolved, path, ok := c.externals.Fetch(name)
	if !ok {
		return nil, &CacheError{Kind: KindFileNotFound, Path: name.String()}
	}
	return nil, &CacheError{Kind: KindSymbolMustBeLoaded, Name: resolved, Path: path}
}

// FilenameForHash and SourceForHash satisfy internal/diag.SourceLocator,
// so a Cache can be handed directly to diag.Render to pretty-print
// diagnostics gathered during a run (spec.md §4.1: "map a SrcRef back
// to a file for diagnostics").
func (c *Cache) FilenameForHash(hash uint64) (string, bool) {
	f, ok := c.byHash[hash]
	if !ok {
		return "", false
	}
	return f.Filename, true
}

func (c *Cache) SourceForHash(hash uint64) (string, bool) {
	f, ok := c.byHash[hash]
	if !ok {
		return "", false
	}
	return f.Source, true
}
