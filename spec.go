package rotolog

import (
	"fmt"
	"strings"
)

// Directive maps a module-path prefix to a minimum severity. An empty Module
// is the root directive and applies to every module that no more specific
// directive covers.
type Directive struct {
	Module string // dot-separated path prefix, "" for root
	Level  Level
}

// Specification is an immutable filter specification: an ordered list of
// directives plus the diagnostics collected while parsing. Edits produce a
// new Specification; values already published are never mutated.
type Specification struct {
	directives  []Directive
	diagnostics []string
}

// ParseSpec parses directive text of the form
//
//	<level>[, <module::path> = <level>]*
//
// Level names are case-insensitive. Module separators may be "::" or ".".
// The wildcard "*" on the left-hand side addresses the root directive, as
// does a bare level token. Malformed tokens do not abort the parse; they are
// collected into the specification's diagnostics, and the returned error is
// non-nil exactly when diagnostics exist. The specification is usable either
// way, so the caller decides whether a partial parse is acceptable.
func ParseSpec(text string) (*Specification, error) {
	spec := &Specification{}

	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		var dir Directive
		if eq := strings.Index(tok, "="); eq >= 0 {
			mod := normalizeModule(tok[:eq])
			lvl, err := ParseLevel(tok[eq+1:])
			if err != nil {
				spec.diagnostics = append(spec.diagnostics,
					fmt.Sprintf("directive %q: bad level %q", tok, strings.TrimSpace(tok[eq+1:])))
				continue
			}
			dir = Directive{Module: mod, Level: lvl}
		} else {
			lvl, err := ParseLevel(tok)
			if err != nil {
				spec.diagnostics = append(spec.diagnostics,
					fmt.Sprintf("directive %q: neither a level nor module=level", tok))
				continue
			}
			dir = Directive{Module: "", Level: lvl}
		}
		spec.directives = append(spec.directives, dir)
	}

	if len(spec.diagnostics) > 0 {
		return spec, newError(ErrCodeSpecParse, "parse-spec", "",
			fmt.Errorf("%d malformed directive(s): %s",
				len(spec.diagnostics), strings.Join(spec.diagnostics, "; ")))
	}
	return spec, nil
}

// normalizeModule canonicalizes a module path to dot separators. The "*"
// wildcard collapses to the root entry.
func normalizeModule(m string) string {
	m = strings.TrimSpace(m)
	if m == "*" {
		return ""
	}
	m = strings.ReplaceAll(m, "::", ".")
	return strings.Trim(m, ".")
}

// Enabled reports whether a record at the given level from the given module
// passes this specification. The most specific matching prefix directive
// wins; among directives of equal specificity the last declared wins. A
// module no directive covers falls back to the root directive, and with no
// root directive only errors pass.
func (s *Specification) Enabled(level Level, module string) bool {
	module = normalizeModule(module)

	best := -1
	threshold := LevelError // default when no directive matches
	for _, dir := range s.directives {
		n := matchLen(dir.Module, module)
		if n >= best && n >= 0 {
			best = n
			threshold = dir.Level
		}
	}
	return level <= threshold
}

// matchLen returns the specificity of dirModule as a prefix of module: the
// number of matched segments, 0 for the root directive, -1 for no match.
func matchLen(dirModule, module string) int {
	if dirModule == "" {
		return 0
	}
	if module == dirModule {
		return strings.Count(dirModule, ".") + 1
	}
	if strings.HasPrefix(module, dirModule+".") {
		return strings.Count(dirModule, ".") + 1
	}
	return -1
}

// Directives returns a copy of the parsed directives in declaration order.
func (s *Specification) Directives() []Directive {
	out := make([]Directive, len(s.directives))
	copy(out, s.directives)
	return out
}

// Diagnostics returns the malformed tokens collected during parsing.
func (s *Specification) Diagnostics() []string {
	out := make([]string, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// Text renders the specification back into canonical directive text, with
// "::" module separators and lower-case level names. Diagnostics are not
// included.
func (s *Specification) Text() string {
	parts := make([]string, 0, len(s.directives))
	for _, dir := range s.directives {
		if dir.Module == "" {
			parts = append(parts, strings.ToLower(dir.Level.String()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s",
			strings.ReplaceAll(dir.Module, ".", "::"),
			strings.ToLower(dir.Level.String())))
	}
	return strings.Join(parts, ", ")
}
