// Package scanner discovers the import edges of a unit: it extracts the
// unit's import statements, resolves each referenced name, and reports the
// fully-qualified names that are currently loaded in the host registry.
//
// An import of a not-yet-loaded unit is not a trackable edge; it is picked
// up on the next scan after that unit loads. Discovery therefore never
// forces a load.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/reloadgo/internal/parser"
	"github.com/vk/reloadgo/internal/registry"
	"github.com/vk/reloadgo/internal/resolve"
)

// cacheSize bounds the extracted-statement cache. Reload cascades rescan the
// same files repeatedly, so even a small cache absorbs most of the parsing.
const cacheSize = 256

// Scanner resolves a unit's imports against the host module registry.
type Scanner struct {
	extractor parser.Extractor
	registry  registry.ModuleRegistry
	cache     *lru.Cache[string, []parser.Statement]
}

// New creates a Scanner. A nil extractor selects the default LineExtractor.
func New(extractor parser.Extractor, reg registry.ModuleRegistry) *Scanner {
	if extractor == nil {
		extractor = parser.LineExtractor{}
	}
	cache, err := lru.New[string, []parser.Statement](cacheSize)
	if err != nil {
		panic(err)
	}
	return &Scanner{extractor: extractor, registry: reg, cache: cache}
}

// Scan extracts and resolves the imports of the given source text, returning
// the set of fully-qualified names present in the host registry.
//
// Statements whose reference cannot be resolved contribute nothing; their
// resolution errors are joined into the returned error alongside the partial
// result, so the caller decides whether a failed resolution is fatal.
// An unparsable source returns parser.ErrUnparsableSource and no names.
func (s *Scanner) Scan(src []byte, pkg string) (map[string]struct{}, error) {
	statements, err := s.extractor.Extract(src)
	if err != nil {
		return nil, err
	}
	return s.resolveAll(statements, pkg)
}

// ScanFile is Scan over the file's content, with the extracted statements
// cached per path and modification time.
func (s *Scanner) ScanFile(path, pkg string) (map[string]struct{}, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat unit source: %w", err)
	}

	key := path + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	if statements, ok := s.cache.Get(key); ok {
		return s.resolveAll(statements, pkg)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit source: %w", err)
	}
	statements, err := s.extractor.Extract(src)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, statements)
	return s.resolveAll(statements, pkg)
}

// resolveAll resolves every statement's references and filters them against
// the registry. One statement failing resolution does not abort the scan.
func (s *Scanner) resolveAll(statements []parser.Statement, pkg string) (map[string]struct{}, error) {
	imported := make(map[string]struct{})
	var errs []error

	keep := func(name string) {
		if _, ok := s.registry.Lookup(name); ok {
			imported[name] = struct{}{}
		}
	}

	for _, stmt := range statements {
		if stmt.Module != "" {
			resolved, err := resolve.Name(stmt.Module, pkg, "", stmt.Level)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			keep(resolved)
		}
		for _, name := range stmt.Names {
			resolved, err := resolve.Name(name, pkg, stmt.Module, stmt.Level)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			keep(resolved)
		}
	}

	return imported, errors.Join(errs...)
}
