package codegen

import (
	"strings"
	"text/template"
)

var methodTemplate = template.Must(template.New("method").Parse(
	`{{$i := .Indent}}{{$i}}def {{.Name}}({{.Signature .Receiver}}) -> {{.ReturnType}}:
{{$i}}{{$i}}{{if .Unrolled}}input = {{.InputType}}({{.Assignments}})
{{$i}}{{$i}}{{end}}output = {{.OutputType}}()
{{$i}}{{$i}}output.ParseFromString({{.Dispatch}}({{.Index}}, input))
{{$i}}{{$i}}return output{{with .ReturnField}}.{{.}}{{end}}
`))

type methodData struct {
	*Method
	Indent   string
	Receiver string
	Dispatch string
}

// renderMethod renders the wrapper for m. The result ends with a newline.
func (g *Generator) renderMethod(m *Method) (string, error) {
	var b strings.Builder
	err := methodTemplate.Execute(&b, methodData{
		Method:   m,
		Indent:   g.opts.Indent,
		Receiver: g.opts.Receiver,
		Dispatch: g.opts.Dispatch,
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
