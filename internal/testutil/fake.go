// Package testutil provides testing utilities for ctxlift.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mpyw/ctxlift/pkg/cparser"
)

// FakeCursor is an in-memory cparser.Cursor for engine tests. Identity is
// pointer identity, matching how the discoverer compares handles.
type FakeCursor struct {
	NodeKind   cparser.Kind
	Name       string // spelling, and display name unless Display is set
	Display    string
	Ext        cparser.Extent
	HasExt     bool
	Ref        *FakeCursor
	SemParent  *FakeCursor
	ResultType string
	TypeName   string
	Args       int
	Children   []*FakeCursor
}

var _ cparser.Cursor = (*FakeCursor)(nil)

func (c *FakeCursor) Kind() cparser.Kind { return c.NodeKind }
func (c *FakeCursor) Spelling() string   { return c.Name }

func (c *FakeCursor) DisplayName() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Name
}

func (c *FakeCursor) Extent() (cparser.Extent, bool) { return c.Ext, c.HasExt }

func (c *FakeCursor) Referenced() (cparser.Cursor, bool) {
	if c.Ref == nil {
		return nil, false
	}
	return c.Ref, true
}

func (c *FakeCursor) SemanticParent() (cparser.Cursor, bool) {
	if c.SemParent == nil {
		return nil, false
	}
	return c.SemParent, true
}

func (c *FakeCursor) ResultTypeSpelling() string { return c.ResultType }
func (c *FakeCursor) TypeSpelling() string       { return c.TypeName }
func (c *FakeCursor) NumArguments() int          { return c.Args }

func (c *FakeCursor) Equal(other cparser.Cursor) bool {
	o, ok := other.(*FakeCursor)
	return ok && o == c
}

// At gives the cursor an extent spanning the nth occurrence (1-based) of
// substr within src, attributed to file. It fails the test when the
// occurrence does not exist.
func (c *FakeCursor) At(t *testing.T, file, src, substr string, n int) *FakeCursor {
	t.Helper()
	c.Ext = SpanIn(t, file, src, substr, n)
	c.HasExt = true
	return c
}

// SpanIn locates the nth occurrence (1-based) of substr within src and
// returns its extent in file.
func SpanIn(t *testing.T, file, src, substr string, n int) cparser.Extent {
	t.Helper()
	offset := 0
	for i := 0; i < n; i++ {
		idx := strings.Index(src[offset:], substr)
		if idx < 0 {
			t.Fatalf("occurrence %d of %q not found in %q", n, substr, src)
		}
		offset += idx
		if i < n-1 {
			offset += len(substr)
		}
	}
	return cparser.Extent{
		File:  file,
		Start: uint32(offset),
		End:   uint32(offset + len(substr)),
	}
}

// FakeUnit walks a FakeCursor tree depth-first, mirroring the contiguous
// child emission of the real parser. The root is the translation unit and is
// not itself visited.
type FakeUnit struct {
	Root     *FakeCursor
	Disposed bool
}

var _ cparser.Unit = (*FakeUnit)(nil)

func (u *FakeUnit) Visit(fn func(cursor, parent cparser.Cursor) bool) {
	var walk func(c *FakeCursor) bool
	walk = func(c *FakeCursor) bool {
		for _, child := range c.Children {
			if !fn(child, c) {
				return false
			}
			if !walk(child) {
				return false
			}
		}
		return true
	}
	walk(u.Root)
}

func (u *FakeUnit) Dispose() { u.Disposed = true }

// FakeParser serves pre-built units keyed by filename.
type FakeParser struct {
	Units map[string]*FakeUnit
}

var _ cparser.Parser = (*FakeParser)(nil)

func (p *FakeParser) Parse(filename string, options []string) (cparser.Unit, error) {
	u, ok := p.Units[filename]
	if !ok {
		return nil, fmt.Errorf("failed to parse %s: no such unit", filename)
	}
	return u, nil
}

func (p *FakeParser) Dispose() {}
