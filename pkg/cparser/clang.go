package cparser

import (
	"fmt"

	"github.com/go-clang/clang-v14/clang"
)

// ClangParser is the libclang-backed Parser. It owns a clang index that must
// outlive every translation unit parsed through it.
type ClangParser struct {
	idx clang.Index
}

// NewClangParser creates a parser index with diagnostics enabled.
func NewClangParser() *ClangParser {
	return &ClangParser{idx: clang.NewIndex(1, 1)}
}

// Parse builds a translation unit for filename. The options are passed
// verbatim to libclang; ctxlift itself does not interpret them.
func (p *ClangParser) Parse(filename string, options []string) (Unit, error) {
	var tu clang.TranslationUnit
	if cErr := p.idx.ParseTranslationUnit2(filename, options, nil, 0, &tu); clang.ErrorCode(cErr) != clang.Error_Success {
		return nil, fmt.Errorf("failed to parse %s: %s", filename, clang.ErrorCode(cErr).Spelling())
	}
	return &clangUnit{tu: tu}, nil
}

// Dispose releases the clang index.
func (p *ClangParser) Dispose() {
	p.idx.Dispose()
}

type clangUnit struct {
	tu clang.TranslationUnit
}

func (u *clangUnit) Visit(fn func(cursor, parent Cursor) bool) {
	root := u.tu.TranslationUnitCursor()
	root.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if cursor.IsNull() {
			return clang.ChildVisit_Continue
		}
		if !fn(clangCursor{cursor}, clangCursor{parent}) {
			return clang.ChildVisit_Break
		}
		return clang.ChildVisit_Recurse
	})
}

func (u *clangUnit) Dispose() {
	u.tu.Dispose()
}

type clangCursor struct {
	c clang.Cursor
}

func (cc clangCursor) Kind() Kind {
	switch cc.c.Kind() {
	case clang.Cursor_TranslationUnit:
		return TranslationUnit
	case clang.Cursor_FunctionDecl:
		return FunctionDecl
	case clang.Cursor_ParmDecl:
		return ParmDecl
	case clang.Cursor_CompoundStmt:
		return CompoundStmt
	case clang.Cursor_CallExpr:
		return CallExpr
	case clang.Cursor_DeclRefExpr:
		return DeclRefExpr
	case clang.Cursor_VarDecl:
		return VarDecl
	}
	return Other
}

// The bindings convert every CXString to a Go string and dispose the
// original, so all strings returned below are owned copies.

func (cc clangCursor) Spelling() string {
	return cc.c.Spelling()
}

func (cc clangCursor) DisplayName() string {
	return cc.c.DisplayName()
}

func (cc clangCursor) Extent() (Extent, bool) {
	r := cc.c.Extent()
	file, _, _, start := r.Start().FileLocation()
	_, _, _, end := r.End().FileLocation()
	name := file.Name()
	if name == "" {
		return Extent{}, false
	}
	return Extent{File: name, Start: start, End: end}, true
}

func (cc clangCursor) Referenced() (Cursor, bool) {
	ref := cc.c.Referenced()
	if ref.IsNull() {
		return nil, false
	}
	return clangCursor{ref}, true
}

func (cc clangCursor) SemanticParent() (Cursor, bool) {
	parent := cc.c.SemanticParent()
	if parent.IsNull() {
		return nil, false
	}
	return clangCursor{parent}, true
}

func (cc clangCursor) ResultTypeSpelling() string {
	return cc.c.ResultType().Spelling()
}

func (cc clangCursor) TypeSpelling() string {
	return cc.c.Type().Spelling()
}

func (cc clangCursor) NumArguments() int {
	return int(cc.c.NumArguments())
}

func (cc clangCursor) Equal(other Cursor) bool {
	o, ok := other.(clangCursor)
	if !ok {
		return false
	}
	return cc.c.Equal(o.c)
}
