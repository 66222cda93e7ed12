package render

import (
	"bytes"
	"html/template"
)

// SandboxAttr is the sandbox policy applied to the preview frame. Scripts
// run so Tailwind can style the page, but without allow-same-origin the
// frame cannot read or script the host document.
const SandboxAttr = "allow-scripts"

const hostTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; height: 100%; background: #f3f4f6; }
  iframe { border: 0; width: 100%; height: 100%; background: #fff; }
</style>
</head>
<body>
<iframe id="preview" title="{{.Title}}" sandbox="{{.Sandbox}}" srcdoc="{{.Markup}}"></iframe>
</body>
</html>
`

var hostTmpl = template.Must(template.New("host").Parse(hostTemplate))

// SandboxDocument returns a host page that shows markup inside a sandboxed
// iframe. The markup is attribute-escaped into srcdoc, so it can never
// close the frame tag and run in the host.
func SandboxDocument(title, markup string) (string, error) {
	if title == "" {
		title = "Preview"
	}
	var buf bytes.Buffer
	err := hostTmpl.Execute(&buf, struct {
		Title   string
		Sandbox string
		Markup  string
	}{title, SandboxAttr, markup})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
