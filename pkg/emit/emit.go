// Package emit renders the synthesized context header and initializer.
package emit

import (
	"bytes"
	"fmt"
	"text/template"
)

// Field is one member of the context aggregate.
type Field struct {
	// Type is the C type spelling of the former global.
	Type string
	// Name is the display name of the former global.
	Name string
	// Init is the literal initializer text, "0" when the declaration
	// carried none.
	Init string
}

// Vars holds the variables available to the header and source templates.
type Vars struct {
	// StructName is the tag of the aggregate and the name of the pointer
	// parameter threaded through every function.
	StructName string
	// InitFunc is the name of the generated initializer routine.
	InitFunc string
	// Fields are the aggregate members in emission order. Callers pass them
	// sorted by name; this package does not reorder.
	Fields []Field
}

const headerText = `/* Generated by ctxlift. Equally-named file-scope variables across
 * translation units collapse into a single field. */
struct {{.StructName}}
{
{{- range .Fields}}
    {{.Type}} {{.Name}};
{{- end}}
};
`

const sourceText = `void {{.InitFunc}}(struct {{.StructName}} *{{.StructName}})
{
{{- range .Fields}}
    {{$.StructName}}->{{.Name}} = {{.Init}};
{{- end}}
}
`

var (
	headerTmpl = template.Must(template.New("header").Parse(headerText))
	sourceTmpl = template.Must(template.New("source").Parse(sourceText))
)

// Header renders the context aggregate declaration.
func Header(vars Vars) (string, error) {
	return render(headerTmpl, vars)
}

// Source renders the initializer routine that reproduces the original global
// initializers as assignments into a passed-in aggregate.
func Source(vars Vars) (string, error) {
	return render(sourceTmpl, vars)
}

func render(tmpl *template.Template, vars Vars) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
