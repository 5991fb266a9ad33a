package mtp

import "strings"

// ComponentKind tells the resolver how to treat a path component.
type ComponentKind int

const (
	// Named is an ordinary segment matched against child names.
	Named ComponentKind = iota
	// CurrentDir is ".".
	CurrentDir
	// ParentDir is "..".
	ParentDir
	// Absolute marks a leading separator, drive or UNC prefix.
	Absolute
)

func (k ComponentKind) String() string {
	switch k {
	case Named:
		return "named"
	case CurrentDir:
		return "current"
	case ParentDir:
		return "parent"
	case Absolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// PathComponent is one step of a path.
type PathComponent struct {
	Kind ComponentKind
	Name string // set for Named and Absolute components
}

func (c PathComponent) String() string {
	switch c.Kind {
	case CurrentDir:
		return "."
	case ParentDir:
		return ".."
	default:
		return c.Name
	}
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// SplitPath breaks a device path into components. Both '/' and '\' separate
// components; repeated and trailing separators collapse, so no Named
// component is ever empty. A leading separator or a drive prefix such as
// "C:" produces an Absolute component first.
func SplitPath(p string) []PathComponent {
	var comps []PathComponent

	if prefix := absolutePrefix(p); prefix != "" {
		comps = append(comps, PathComponent{Kind: Absolute, Name: prefix})
		p = p[len(prefix):]
	}

	for _, seg := range strings.FieldsFunc(p, isSeparator) {
		switch seg {
		case ".":
			comps = append(comps, PathComponent{Kind: CurrentDir})
		case "..":
			comps = append(comps, PathComponent{Kind: ParentDir})
		default:
			comps = append(comps, PathComponent{Kind: Named, Name: seg})
		}
	}
	return comps
}

// absolutePrefix returns the rooting prefix of p: a drive ("C:"), a drive
// plus separator ("C:\"), or a run of leading separators (which covers UNC
// and device namespace prefixes).
func absolutePrefix(p string) string {
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		if len(p) >= 3 && isSeparator(rune(p[2])) {
			return p[:3]
		}
		return p[:2]
	}
	i := 0
	for i < len(p) && isSeparator(rune(p[i])) {
		i++
	}
	return p[:i]
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// IsAbsolute reports whether p is rooted or drive-prefixed.
func IsAbsolute(p string) bool {
	return absolutePrefix(p) != ""
}

// JoinPath joins components with '/'.
func JoinPath(elem ...string) string {
	var parts []string
	for _, e := range elem {
		if e = strings.Trim(e, `/\`); e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "/")
}
