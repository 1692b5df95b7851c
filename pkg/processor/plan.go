package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mpyw/ctxlift/pkg/cparser"
	"github.com/mpyw/ctxlift/pkg/source"
)

// TextEdit replaces the bytes [Start, Start+Length) of File with Text.
// A zero Length is a pure insertion.
type TextEdit struct {
	File   string
	Start  uint32
	Length uint32
	Text   string
}

// plan converts the discovered tables into a flat edit sequence. The order
// of emission is irrelevant; normalize establishes the application order.
func (p *Processor) plan(d *discovery) ([]TextEdit, error) {
	var edits []TextEdit

	// Rules F1/F2: thread the context parameter through every function.
	for _, fn := range d.funcs {
		edit, ok, err := p.planFunction(fn)
		if err != nil {
			return nil, err
		}
		if ok {
			edits = append(edits, edit)
		}
	}

	// Rule R: rewrite use sites to field accesses. References inside a
	// removed declaration are left to the initializer emitter; a rewrite
	// here would nest inside the Rule V deletion.
	for _, ref := range d.refs {
		ext, ok := ref.use.Extent()
		if !ok || insideGlobalDecl(d, ext) {
			continue
		}
		edits = append(edits, TextEdit{
			File:   ext.File,
			Start:  ext.Start,
			Length: ext.Len(),
			Text:   p.cfg.StructName + "->" + ref.target.DisplayName(),
		})
	}

	// Rule C: insert the context argument right after the opening paren.
	for _, call := range d.calls {
		edit, ok, err := p.planCall(d, call)
		if err != nil {
			return nil, err
		}
		if ok {
			edits = append(edits, edit)
		}
	}

	// Rule V: remove every declaration site subsumed by the context struct.
	for _, name := range d.names() {
		for _, decl := range d.vars[name].decls {
			ext, ok := decl.Extent()
			if !ok {
				continue
			}
			edits = append(edits, TextEdit{File: ext.File, Start: ext.Start, Length: ext.Len()})
		}
	}

	return edits, nil
}

// planFunction emits the signature rewrite for one global function.
//
// With an explicit first parameter the parameter's extent is replaced,
// prepending the context parameter (Rule F1). Without parameters the region
// from the declaration start to the body start is regenerated from the
// result type and function spelling (Rule F2); a pure declaration replaces
// its whole extent.
func (p *Processor) planFunction(fn *globalFunction) (TextEdit, bool, error) {
	ctx := p.cfg.StructName

	if fn.param != nil {
		ext, ok := fn.param.Extent()
		if !ok {
			return TextEdit{}, false, nil
		}
		f, err := p.loader.Load(ext.File)
		if err != nil {
			return TextEdit{}, false, err
		}
		orig, err := sliceExtent(f, ext)
		if err != nil {
			return TextEdit{}, false, err
		}
		return TextEdit{
			File:   ext.File,
			Start:  ext.Start,
			Length: ext.Len(),
			Text:   fmt.Sprintf("struct %s *%s, %s", ctx, ctx, orig),
		}, true, nil
	}

	declExt, ok := fn.decl.Extent()
	if !ok {
		return TextEdit{}, false, nil
	}
	text := fmt.Sprintf("%s %s(struct %s *%s)", fn.decl.ResultTypeSpelling(), fn.decl.Spelling(), ctx, ctx)

	if fn.body == nil {
		return TextEdit{
			File:   declExt.File,
			Start:  declExt.Start,
			Length: declExt.Len(),
			Text:   text,
		}, true, nil
	}

	bodyExt, ok := fn.body.Extent()
	if !ok {
		return TextEdit{}, false, fmt.Errorf("function %s: body without extent", fn.decl.Spelling())
	}
	if bodyExt.File != declExt.File || bodyExt.Start < declExt.Start || bodyExt.Start > declExt.End {
		return TextEdit{}, false, fmt.Errorf("function %s: body extent outside declaration", fn.decl.Spelling())
	}
	return TextEdit{
		File:   declExt.File,
		Start:  declExt.Start,
		Length: bodyExt.Start - declExt.Start,
		Text:   text + "\n",
	}, true, nil
}

// planCall emits a zero-length insertion after the first "(" of the call
// extent: the context alone for a zero-argument callee, the context plus a
// comma otherwise. An insertion never overlaps the reference rewrites of the
// call's arguments.
func (p *Processor) planCall(d *discovery, c callExpr) (TextEdit, bool, error) {
	ext, ok := c.call.Extent()
	if !ok || insideGlobalDecl(d, ext) {
		return TextEdit{}, false, nil
	}
	f, err := p.loader.Load(ext.File)
	if err != nil {
		return TextEdit{}, false, err
	}
	text, err := sliceExtent(f, ext)
	if err != nil {
		return TextEdit{}, false, err
	}
	paren := strings.IndexByte(text, '(')
	if paren < 0 {
		return TextEdit{}, false, nil
	}

	insert := p.cfg.StructName
	if c.call.NumArguments() >= 1 {
		insert += ","
	}
	return TextEdit{
		File:   ext.File,
		Start:  ext.Start + uint32(paren) + 1,
		Length: 0,
		Text:   insert,
	}, true, nil
}

// insideGlobalDecl reports whether ext lies within the extent of any global
// variable declaration site.
func insideGlobalDecl(d *discovery, ext cparser.Extent) bool {
	for _, v := range d.vars {
		for _, decl := range v.decls {
			declExt, ok := decl.Extent()
			if !ok || declExt.File != ext.File {
				continue
			}
			if ext.Start >= declExt.Start && ext.End <= declExt.End {
				return true
			}
		}
	}
	return false
}

// sliceExtent returns the literal source text of ext, enforcing that the
// range lies within the file.
func sliceExtent(f *source.File, ext cparser.Extent) (string, error) {
	if ext.End < ext.Start || ext.End > uint32(len(f.Data)) {
		return "", fmt.Errorf("extent [%d,%d) out of bounds in %s (%d bytes)", ext.Start, ext.End, f.Name, len(f.Data))
	}
	return string(f.Data[ext.Start:ext.End]), nil
}

// normalize orders edits for application and collapses duplicates. Files
// ascend; within a file, offsets descend so applying an edit never shifts
// one that has not been applied yet. Ties at the same offset put longer
// edits first, which lands a zero-length insertion in front of text spliced
// at the same position. Two edits are duplicates when file, start and length
// coincide; the replacement text is not part of the equality and the
// later-sorted edit wins.
func normalize(edits []TextEdit) []TextEdit {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Start != b.Start {
			return a.Start > b.Start
		}
		return a.Length > b.Length
	})

	out := make([]TextEdit, 0, len(edits))
	for _, e := range edits {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.File == e.File && prev.Start == e.Start && prev.Length == e.Length {
				prev.Text = e.Text
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
