package processor

import (
	"sort"

	"github.com/mpyw/ctxlift/pkg/config"
	"github.com/mpyw/ctxlift/pkg/cparser"
)

// globalFunction is one file-scope function definition or declaration.
type globalFunction struct {
	decl  cparser.Cursor
	param cparser.Cursor // first parameter, nil when the function takes none
	body  cparser.Cursor // compound body, nil for pure declarations
}

// globalVariable collects everything known about one file-scope variable.
// Equally-named declarations across translation units share a record: decl
// tracks the last one seen, decls every declaration site.
type globalVariable struct {
	decl  cparser.Cursor
	decls []cparser.Cursor
	init  cparser.Cursor // last child seen under decl, nil when uninitialized
}

// globalRef is one use site of a global variable.
type globalRef struct {
	use    cparser.Cursor
	target cparser.Cursor
}

type callExpr struct {
	call cparser.Cursor
}

// discovery accumulates the four fact tables across all input translation
// units.
type discovery struct {
	cfg   *config.Config
	funcs []*globalFunction
	vars  map[string]*globalVariable
	refs  []globalRef
	calls []callExpr
}

func newDiscovery(cfg *config.Config) *discovery {
	return &discovery{
		cfg:  cfg,
		vars: make(map[string]*globalVariable),
	}
}

// names returns the global variable display names in lexicographic order.
// Field emission order depends on it, so tests depend on this determinism.
func (d *discovery) names() []string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// walk performs the single depth-first discovery pass over one unit.
//
// The currently-open function and variable are walk-local. The parser emits
// children contiguously with their parent, so a running pointer updated on
// entry to the enclosing construct is sufficient; the pointer is only read
// when a candidate child is visited.
func (d *discovery) walk(u cparser.Unit) {
	var currFunc *globalFunction
	var currVar *globalVariable

	u.Visit(func(cursor, parent cparser.Cursor) bool {
		switch cursor.Kind() {
		case cparser.FunctionDecl:
			fn := &globalFunction{decl: cursor}
			d.funcs = append(d.funcs, fn)
			currFunc = fn
			currVar = nil
			return true

		case cparser.ParmDecl:
			// Only the first parameter is retained; rewriting it is enough
			// to thread the context through the signature.
			if currFunc != nil && currFunc.param == nil && parent.Equal(currFunc.decl) {
				currFunc.param = cursor
			}

		case cparser.CompoundStmt:
			if currFunc != nil && currFunc.body == nil && parent.Equal(currFunc.decl) {
				currFunc.body = cursor
			}

		case cparser.CallExpr:
			d.calls = append(d.calls, callExpr{call: cursor})

		case cparser.DeclRefExpr:
			if target, ok := cursor.Referenced(); ok && isFileScopeVar(target) && !d.cfg.Excluded(target.DisplayName()) {
				d.refs = append(d.refs, globalRef{use: cursor, target: target})
			}

		case cparser.VarDecl:
			if parent.Kind() == cparser.TranslationUnit {
				name := cursor.DisplayName()
				if d.cfg.Excluded(name) {
					currVar = nil
					return true
				}
				v, ok := d.vars[name]
				if !ok {
					v = &globalVariable{}
					d.vars[name] = v
				}
				v.decl = cursor
				v.decls = append(v.decls, cursor)
				currVar = v
				return true
			}
		}

		// A child of the open variable declaration is its initializer.
		// Later children overwrite earlier ones; a declaration has a single
		// initializer child, so the last one seen is it.
		if currVar != nil && currVar.decl != nil && parent.Equal(currVar.decl) {
			currVar.init = cursor
		}
		return true
	})
}

// isFileScopeVar reports whether decl is a variable whose semantic parent is
// the translation unit.
func isFileScopeVar(decl cparser.Cursor) bool {
	if decl.Kind() != cparser.VarDecl {
		return false
	}
	parent, ok := decl.SemanticParent()
	return ok && parent.Kind() == cparser.TranslationUnit
}
