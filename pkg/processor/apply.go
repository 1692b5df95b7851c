package processor

import (
	"fmt"
	"sort"
)

// apply splices the normalized edits into the cached sources and writes each
// rewritten file to the output, preceded by a provenance comment line. The
// emitted set is the union of the edit-set filenames and the input filenames
// in lexicographic order, so an input that received no edits is still echoed.
func (p *Processor) apply(edits []TextEdit, inputs []string) error {
	perFile := make(map[string][]TextEdit)
	for _, e := range edits {
		perFile[e.File] = append(perFile[e.File], e)
	}

	seen := make(map[string]bool, len(perFile)+len(inputs))
	names := make([]string, 0, len(perFile)+len(inputs))
	for name := range perFile {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range inputs {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := p.loader.Load(name)
		if err != nil {
			return err
		}

		buf := append([]byte(nil), f.Data...)
		fileEdits := perFile[name]
		for i, e := range fileEdits {
			if e.Start+e.Length > uint32(len(f.Data)) {
				return fmt.Errorf("edit [%d,%d) out of bounds in %s (%d bytes)", e.Start, e.Start+e.Length, name, len(f.Data))
			}
			// Edits arrive in descending start order; the previous edit's
			// original coordinates must lie beyond this one.
			if i > 0 {
				prev := fileEdits[i-1]
				if e.Start+e.Length > prev.Start {
					return fmt.Errorf("overlapping edits in %s: [%d,%d) and [%d,%d)", name, e.Start, e.Start+e.Length, prev.Start, prev.Start+prev.Length)
				}
			}
			buf = splice(buf, e)
		}

		if _, err := fmt.Fprintf(p.out, "/* %s */\n", name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := p.out.Write(buf); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if len(buf) > 0 && buf[len(buf)-1] != '\n' {
			if _, err := fmt.Fprintln(p.out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

// splice replaces [e.Start, e.Start+e.Length) of buf with e.Text.
func splice(buf []byte, e TextEdit) []byte {
	out := make([]byte, 0, len(buf)-int(e.Length)+len(e.Text))
	out = append(out, buf[:e.Start]...)
	out = append(out, e.Text...)
	out = append(out, buf[e.Start+e.Length:]...)
	return out
}
