package parser

import (
	"path/filepath"
	"strings"
)

// AnonymousScope names a namespace that has no name of its own.
const AnonymousScope = "<anonymous>"

// ModuleName returns the module name of path: the file stem, or the parent
// directory name when the base name is one of entryFiles (index.js,
// __init__.py, ...).
func ModuleName(path string, entryFiles []string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, entry := range entryFiles {
		if base != entry {
			continue
		}
		parent := filepath.Base(filepath.Dir(path))
		if parent != "" && parent != "." && parent != string(filepath.Separator) {
			return parent
		}
		break
	}
	return stem
}

// Scope is the naming context of a declaration. It is a value: entering a
// namespace or a type returns a new Scope and leaves the receiver untouched.
type Scope struct {
	module    string
	namespace string
	sep       string
	owner     string
}

// NewScope returns the file-level scope of module. sep joins nested
// namespace names.
func NewScope(module, sep string) Scope {
	return Scope{module: module, sep: sep}
}

func (s Scope) Module() string    { return s.module }
func (s Scope) Namespace() string { return s.namespace }
func (s Scope) Owner() string     { return s.owner }

// EnterNamespace returns the scope inside namespace name. An unnamed
// namespace keeps the enclosing namespace, or becomes <anonymous> at file
// level.
func (s Scope) EnterNamespace(name string) Scope {
	next := s
	next.owner = ""
	switch {
	case name == "" && s.namespace != "":
	case name == "":
		next.namespace = AnonymousScope
	case s.namespace == "":
		next.namespace = name
	default:
		next.namespace = s.namespace + s.sep + name
	}
	return next
}

// EnterType returns the scope of members of the type named qualified.
func (s Scope) EnterType(qualified string) Scope {
	next := s
	next.owner = qualified
	return next
}

// Qualify builds the qualified name of local declared in s.
func (s Scope) Qualify(local string) string {
	switch {
	case s.owner != "":
		return s.owner + "." + local
	case s.namespace != "":
		return s.module + "." + s.namespace + s.sep + local
	default:
		return s.module + "." + local
	}
}
