package processor

import (
	"fmt"
	"io"
	"sort"

	"github.com/mpyw/ctxlift/pkg/cparser"
	"github.com/mpyw/ctxlift/pkg/emit"
)

// emitContext writes the synthesized header and initializer source after the
// rewritten inputs, one field and one assignment per distinct global, in
// lexicographic name order.
func (p *Processor) emitContext(d *discovery) error {
	fields := make([]emit.Field, 0, len(d.vars))
	for _, name := range d.names() {
		v := d.vars[name]
		init := "0"
		if v.init != nil {
			if ext, ok := v.init.Extent(); ok {
				f, err := p.loader.Load(ext.File)
				if err != nil {
					return err
				}
				text, err := sliceExtent(f, ext)
				if err != nil {
					return err
				}
				init = p.rewriteInitText(d, ext, text)
			}
		}
		fields = append(fields, emit.Field{Type: v.decl.TypeSpelling(), Name: name, Init: init})
	}

	vars := emit.Vars{StructName: p.cfg.StructName, InitFunc: p.cfg.InitFunc, Fields: fields}

	header, err := emit.Header(vars)
	if err != nil {
		return err
	}
	src, err := emit.Source(vars)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(p.out, "/* %s */\n", p.cfg.HeaderName); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := io.WriteString(p.out, header); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintf(p.out, "/* %s */\n", p.cfg.SourceName); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := io.WriteString(p.out, src); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// rewriteInitText threads context accesses through an initializer snippet.
// Rule R skips references inside a removed declaration, so the literal
// initializer text reproduced here is the one place they get rewritten.
func (p *Processor) rewriteInitText(d *discovery, ext cparser.Extent, text string) string {
	type span struct {
		start, end uint32
		repl       string
	}
	var spans []span
	for _, ref := range d.refs {
		re, ok := ref.use.Extent()
		if !ok || re.File != ext.File || re.Start < ext.Start || re.End > ext.End {
			continue
		}
		spans = append(spans, span{
			start: re.Start - ext.Start,
			end:   re.End - ext.Start,
			repl:  p.cfg.StructName + "->" + ref.target.DisplayName(),
		})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	for _, s := range spans {
		if int(s.end) > len(text) || s.start > s.end {
			continue
		}
		text = text[:s.start] + s.repl + text[s.end:]
	}
	return text
}
