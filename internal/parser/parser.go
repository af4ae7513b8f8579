// Package parser extracts import statements from a unit's source text.
//
// The scanner only consumes the generic Statement form produced here, so a
// host that already has a full AST frontend can swap in its own Extractor;
// the shipped LineExtractor understands the two statement shapes the core
// cares about: a plain import of one or more names, and a from-style import
// of names out of a base module at some relative level.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnparsableSource marks a unit whose source cannot be parsed, such as a
// native or built-in implementation. Such a unit is treated as a leaf with
// no tracked dependencies.
var ErrUnparsableSource = errors.New("unparsable unit source")

// Statement is one import statement in generic form.
type Statement struct {
	// Module is the base module of a from-style import, with any leading
	// relative markers stripped. Empty for plain imports.
	Module string
	// Names are the imported names. A plain import lists the imported units
	// themselves; a from-style import lists names out of Module.
	Names []string
	// Level is the relative import level: the number of leading relative
	// markers on the from-clause. Zero means absolute.
	Level int
}

// Extractor produces the import-statement sequence of a unit's source text.
type Extractor interface {
	Extract(src []byte) ([]Statement, error)
}

// LineExtractor is the default Extractor. It recognizes, one per line:
//
//	import NAME[, NAME...]
//	from [.]*MODULE import NAME [as ALIAS][, NAME...]
//
// Anything else, including comments, is ignored.
type LineExtractor struct{}

// Extract implements Extractor.
func (LineExtractor) Extract(src []byte) ([]Statement, error) {
	if bytes.ContainsRune(src, 0) || !utf8.Valid(src) {
		return nil, fmt.Errorf("binary source: %w", ErrUnparsableSource)
	}

	var statements []Statement
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "import "):
			stmt := Statement{Names: splitNames(strings.TrimPrefix(line, "import "))}
			if len(stmt.Names) > 0 {
				statements = append(statements, stmt)
			}
		case strings.HasPrefix(line, "from "):
			stmt, ok := parseFrom(line)
			if ok {
				statements = append(statements, stmt)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return statements, nil
}

// parseFrom parses a "from X import a, b" line. Malformed lines are skipped
// rather than failing the whole extraction.
func parseFrom(line string) (Statement, bool) {
	rest := strings.TrimPrefix(line, "from ")
	target, names, ok := strings.Cut(rest, " import ")
	if !ok {
		return Statement{}, false
	}

	target = strings.TrimSpace(target)
	module := strings.TrimLeft(target, ".")
	stmt := Statement{
		Module: module,
		Level:  len(target) - len(module),
		Names:  splitNames(names),
	}
	if stmt.Module == "" && stmt.Level == 0 {
		return Statement{}, false
	}
	return stmt, len(stmt.Names) > 0
}

// splitNames splits a comma-separated name list, dropping "as" aliases.
func splitNames(list string) []string {
	var names []string
	for _, raw := range strings.Split(list, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if base, _, ok := strings.Cut(name, " as "); ok {
			name = strings.TrimSpace(base)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
