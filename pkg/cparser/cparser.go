// Package cparser abstracts the external C parser behind cursor handles.
//
// The rewrite engine never touches the parser directly: it consumes Cursor
// and Unit values, which makes the engine testable against in-memory trees.
// The libclang-backed implementation lives in clang.go and is the only code
// in the repository that imports the bindings.
package cparser

// Kind classifies the syntactic constructs the engine cares about. Every
// other construct maps to Other and is still descended into.
type Kind int

const (
	Unknown Kind = iota
	TranslationUnit
	FunctionDecl
	ParmDecl
	CompoundStmt
	CallExpr
	DeclRefExpr
	VarDecl
	Other
)

func (k Kind) String() string {
	switch k {
	case TranslationUnit:
		return "TranslationUnit"
	case FunctionDecl:
		return "FunctionDecl"
	case ParmDecl:
		return "ParmDecl"
	case CompoundStmt:
		return "CompoundStmt"
	case CallExpr:
		return "CallExpr"
	case DeclRefExpr:
		return "DeclRefExpr"
	case VarDecl:
		return "VarDecl"
	case Other:
		return "Other"
	}
	return "Unknown"
}

// Extent is a half-open byte range [Start, End) within the named file. The
// offsets are absolute within the file and match the bytes on disk.
type Extent struct {
	File  string
	Start uint32
	End   uint32
}

// Len returns the number of bytes covered by the extent.
func (e Extent) Len() uint32 {
	return e.End - e.Start
}

// Cursor is a borrowed handle into a parsed translation unit. It must not be
// dereferenced after its Unit is disposed. Every string returned by a Cursor
// is an owned copy and stays valid past the dispose boundary.
type Cursor interface {
	Kind() Kind
	// Spelling is the bare identifier text of the construct.
	Spelling() string
	// DisplayName is the printable name used to key global variables.
	DisplayName() string
	// Extent reports the source range covered by the construct. ok is false
	// for constructs without a file-backed range.
	Extent() (Extent, bool)
	// Referenced resolves a reference cursor to the declaration it names.
	Referenced() (Cursor, bool)
	// SemanticParent is the semantically enclosing construct. A declaration
	// is file scoped iff its semantic parent is the translation unit.
	SemanticParent() (Cursor, bool)
	// ResultTypeSpelling is the spelling of a function's result type.
	ResultTypeSpelling() string
	// TypeSpelling is the spelling of a declaration's type.
	TypeSpelling() string
	// NumArguments is the argument count of a call expression, -1 otherwise.
	NumArguments() int
	// Equal reports whether two handles denote the same AST node.
	Equal(Cursor) bool
}

// Unit is one parsed translation unit.
type Unit interface {
	// Visit walks the unit depth-first, invoking fn for each cursor together
	// with its syntactic parent. Children are emitted contiguously with their
	// parent. Returning false stops the walk.
	Visit(fn func(cursor, parent Cursor) bool)
	// Dispose releases parser-owned memory. No cursor obtained from this
	// unit may be used afterwards.
	Dispose()
}

// Parser produces translation units from C source files.
type Parser interface {
	// Parse builds a translation unit for filename, handing options verbatim
	// to the underlying compiler frontend.
	Parse(filename string, options []string) (Unit, error)
	Dispose()
}
