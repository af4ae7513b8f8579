// Package resolve maps import references to fully-qualified unit names.
//
// Resolution is a pure string operation: it performs no I/O and does not
// consult the host module registry, so it behaves identically regardless of
// load order.
package resolve

import (
	"fmt"
	"strings"
)

// Separator joins the components of a fully-qualified unit name.
const Separator = "."

// ResolutionError reports a malformed or out-of-range import reference.
type ResolutionError struct {
	Name    string
	Package string
	Reason  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q in package %q: %s", e.Name, e.Package, e.Reason)
}

// Name resolves an import reference to a fully-qualified unit name.
//
// name is the imported name, module the optional base module of a from-style
// import, and level the relative import level (0 for absolute). If level is
// zero but the module or name carries leading separator dots, the level is
// inferred from them; an explicit non-zero level always wins over inference.
func Name(name, pkg, module string, level int) (string, error) {
	fullname := name
	if module != "" {
		if name != "" {
			fullname = module + Separator + name
		} else {
			fullname = module
		}
	}

	if level == 0 {
		if !strings.HasPrefix(fullname, Separator) {
			return fullname, nil
		}
		// Infer the level from the leading dots and fall through to the
		// relative branch with the marker stripped.
		trimmed := strings.TrimLeft(fullname, Separator)
		level = len(fullname) - len(trimmed)
		fullname = trimmed
	}

	if pkg == "" {
		return "", &ResolutionError{Name: name, Package: pkg, Reason: "no package for relative import"}
	}

	components := strings.Split(pkg, Separator)
	if level > len(components) {
		return "", &ResolutionError{Name: name, Package: pkg, Reason: "relative import beyond top-level package"}
	}

	base := strings.Join(components[:len(components)-(level-1)], Separator)
	if fullname == "" {
		return base, nil
	}
	return base + Separator + fullname, nil
}
