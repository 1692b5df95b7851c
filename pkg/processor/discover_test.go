package processor

import (
	"testing"

	"github.com/mpyw/ctxlift/internal/testutil"
	"github.com/mpyw/ctxlift/pkg/config"
	"github.com/mpyw/ctxlift/pkg/cparser"
)

const simpleSrc = "int g = 7; int f(void) { return g; }\n"

// simpleUnit builds the tree for `int g = 7; int f(void) { return g; }`.
func simpleUnit(t *testing.T, file string) (*testutil.FakeUnit, *testutil.FakeCursor) {
	t.Helper()
	tu := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}

	varG := (&testutil.FakeCursor{NodeKind: cparser.VarDecl, Name: "g", TypeName: "int", SemParent: tu}).
		At(t, file, simpleSrc, "int g = 7", 1)
	initLit := (&testutil.FakeCursor{NodeKind: cparser.Other}).At(t, file, simpleSrc, "7", 1)
	varG.Children = []*testutil.FakeCursor{initLit}

	fnF := (&testutil.FakeCursor{NodeKind: cparser.FunctionDecl, Name: "f", ResultType: "int"}).
		At(t, file, simpleSrc, "int f(void) { return g; }", 1)
	body := (&testutil.FakeCursor{NodeKind: cparser.CompoundStmt}).At(t, file, simpleSrc, "{ return g; }", 1)
	ret := (&testutil.FakeCursor{NodeKind: cparser.Other}).At(t, file, simpleSrc, "return g", 1)
	refG := (&testutil.FakeCursor{NodeKind: cparser.DeclRefExpr, Name: "g", Ref: varG}).
		At(t, file, simpleSrc, "g", 2)
	ret.Children = []*testutil.FakeCursor{refG}
	body.Children = []*testutil.FakeCursor{ret}
	fnF.Children = []*testutil.FakeCursor{body}

	tu.Children = []*testutil.FakeCursor{varG, fnF}
	return &testutil.FakeUnit{Root: tu}, varG
}

func TestWalkSimpleUnit(t *testing.T) {
	unit, varG := simpleUnit(t, "a.c")
	d := newDiscovery(config.Default())
	d.walk(unit)

	if len(d.funcs) != 1 {
		t.Fatalf("functions = %d, want 1", len(d.funcs))
	}
	fn := d.funcs[0]
	if fn.decl.Spelling() != "f" {
		t.Errorf("function spelling = %q, want f", fn.decl.Spelling())
	}
	if fn.param != nil {
		t.Error("param set for a (void) function")
	}
	if fn.body == nil {
		t.Error("body not recorded")
	}

	if len(d.vars) != 1 {
		t.Fatalf("globals = %d, want 1", len(d.vars))
	}
	v, ok := d.vars["g"]
	if !ok {
		t.Fatal("global g not recorded")
	}
	if !v.decl.Equal(varG) {
		t.Error("declaration cursor mismatch")
	}
	if v.init == nil {
		t.Fatal("initializer not recorded")
	}
	ext, _ := v.init.Extent()
	if got := simpleSrc[ext.Start:ext.End]; got != "7" {
		t.Errorf("initializer text = %q, want 7", got)
	}

	if len(d.refs) != 1 {
		t.Fatalf("references = %d, want 1", len(d.refs))
	}
	if d.refs[0].target.DisplayName() != "g" {
		t.Errorf("reference target = %q, want g", d.refs[0].target.DisplayName())
	}
	if len(d.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(d.calls))
	}
}

func TestWalkRetainsOnlyFirstParameter(t *testing.T) {
	src := "void f(int a, int b) { }\n"
	tu := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}
	fn := (&testutil.FakeCursor{NodeKind: cparser.FunctionDecl, Name: "f", ResultType: "void"}).
		At(t, "a.c", src, "void f(int a, int b) { }", 1)
	parmA := (&testutil.FakeCursor{NodeKind: cparser.ParmDecl, Name: "a"}).At(t, "a.c", src, "int a", 1)
	parmB := (&testutil.FakeCursor{NodeKind: cparser.ParmDecl, Name: "b"}).At(t, "a.c", src, "int b", 1)
	body := (&testutil.FakeCursor{NodeKind: cparser.CompoundStmt}).At(t, "a.c", src, "{ }", 1)
	fn.Children = []*testutil.FakeCursor{parmA, parmB, body}
	tu.Children = []*testutil.FakeCursor{fn}

	d := newDiscovery(config.Default())
	d.walk(&testutil.FakeUnit{Root: tu})

	if len(d.funcs) != 1 {
		t.Fatalf("functions = %d, want 1", len(d.funcs))
	}
	if !d.funcs[0].param.Equal(parmA) {
		t.Error("first parameter not the one retained")
	}
}

func TestWalkIgnoresLocalVariables(t *testing.T) {
	src := "void f(void) { int local = 1; }\n"
	tu := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}
	fn := (&testutil.FakeCursor{NodeKind: cparser.FunctionDecl, Name: "f", ResultType: "void"}).
		At(t, "a.c", src, "void f(void) { int local = 1; }", 1)
	body := (&testutil.FakeCursor{NodeKind: cparser.CompoundStmt}).At(t, "a.c", src, "{ int local = 1; }", 1)
	// Local declarations hang off a DeclStmt, not the translation unit.
	declStmt := (&testutil.FakeCursor{NodeKind: cparser.Other}).At(t, "a.c", src, "int local = 1", 1)
	local := (&testutil.FakeCursor{NodeKind: cparser.VarDecl, Name: "local", TypeName: "int", SemParent: fn}).
		At(t, "a.c", src, "int local = 1", 1)
	declStmt.Children = []*testutil.FakeCursor{local}
	body.Children = []*testutil.FakeCursor{declStmt}
	fn.Children = []*testutil.FakeCursor{body}
	tu.Children = []*testutil.FakeCursor{fn}

	d := newDiscovery(config.Default())
	d.walk(&testutil.FakeUnit{Root: tu})

	if len(d.vars) != 0 {
		t.Errorf("globals = %d, want 0", len(d.vars))
	}
}

func TestWalkCollapsesEquallyNamedGlobals(t *testing.T) {
	srcA := "int g = 1;\n"
	srcB := "int g;\n"

	tuA := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}
	varA := (&testutil.FakeCursor{NodeKind: cparser.VarDecl, Name: "g", TypeName: "int", SemParent: tuA}).
		At(t, "a.c", srcA, "int g = 1", 1)
	varA.Children = []*testutil.FakeCursor{
		(&testutil.FakeCursor{NodeKind: cparser.Other}).At(t, "a.c", srcA, "1", 1),
	}
	tuA.Children = []*testutil.FakeCursor{varA}

	tuB := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}
	varB := (&testutil.FakeCursor{NodeKind: cparser.VarDecl, Name: "g", TypeName: "int", SemParent: tuB}).
		At(t, "b.c", srcB, "int g", 1)
	tuB.Children = []*testutil.FakeCursor{varB}

	d := newDiscovery(config.Default())
	d.walk(&testutil.FakeUnit{Root: tuA})
	d.walk(&testutil.FakeUnit{Root: tuB})

	if len(d.vars) != 1 {
		t.Fatalf("globals = %d, want 1", len(d.vars))
	}
	v := d.vars["g"]
	// Last declaration wins for the record cursor; every site is retained
	// for removal.
	if !v.decl.Equal(varB) {
		t.Error("declaration cursor is not the last one seen")
	}
	if len(v.decls) != 2 {
		t.Errorf("declaration sites = %d, want 2", len(v.decls))
	}
	// The bare declaration in b.c carries no children, so the initializer
	// from a.c survives.
	if v.init == nil {
		t.Error("initializer lost after collapsing")
	}
}

func TestWalkExcludedGlobal(t *testing.T) {
	cfg := config.Default()
	cfg.Exclude = []string{"g"}

	unit, _ := simpleUnit(t, "a.c")
	d := newDiscovery(cfg)
	d.walk(unit)

	if len(d.vars) != 0 {
		t.Errorf("globals = %d, want 0", len(d.vars))
	}
	if len(d.refs) != 0 {
		t.Errorf("references = %d, want 0", len(d.refs))
	}
}

func TestWalkRecordsCalls(t *testing.T) {
	src := "void f(void) { }\nint main(void) { f(); return 0; }\n"
	tu := &testutil.FakeCursor{NodeKind: cparser.TranslationUnit}

	fnF := (&testutil.FakeCursor{NodeKind: cparser.FunctionDecl, Name: "f", ResultType: "void"}).
		At(t, "a.c", src, "void f(void) { }", 1)
	bodyF := (&testutil.FakeCursor{NodeKind: cparser.CompoundStmt}).At(t, "a.c", src, "{ }", 1)
	fnF.Children = []*testutil.FakeCursor{bodyF}

	fnMain := (&testutil.FakeCursor{NodeKind: cparser.FunctionDecl, Name: "main", ResultType: "int"}).
		At(t, "a.c", src, "int main(void) { f(); return 0; }", 1)
	bodyMain := (&testutil.FakeCursor{NodeKind: cparser.CompoundStmt}).At(t, "a.c", src, "{ f(); return 0; }", 1)
	call := (&testutil.FakeCursor{NodeKind: cparser.CallExpr, Name: "f", Args: 0}).At(t, "a.c", src, "f()", 1)
	callee := (&testutil.FakeCursor{NodeKind: cparser.DeclRefExpr, Name: "f", Ref: fnF}).At(t, "a.c", src, "f()", 1)
	callee.Ext.End = callee.Ext.Start + 1
	call.Children = []*testutil.FakeCursor{callee}
	bodyMain.Children = []*testutil.FakeCursor{call}
	fnMain.Children = []*testutil.FakeCursor{bodyMain}

	tu.Children = []*testutil.FakeCursor{fnF, fnMain}

	d := newDiscovery(config.Default())
	d.walk(&testutil.FakeUnit{Root: tu})

	if len(d.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(d.calls))
	}
	// The callee names a function, not a file-scope variable.
	if len(d.refs) != 0 {
		t.Errorf("references = %d, want 0", len(d.refs))
	}
}

func TestNamesSorted(t *testing.T) {
	d := newDiscovery(config.Default())
	d.vars["zeta"] = &globalVariable{}
	d.vars["alpha"] = &globalVariable{}
	d.vars["mid"] = &globalVariable{}

	got := d.names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names() = %v, want %v", got, want)
		}
	}
}
