package http

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trackheat/api"
)

const specPath = "/docs/openapi.yaml"

var docsTmpl = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} API reference</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>
    body{margin:0;background:#fafafa;font-family:sans-serif}
    header{display:flex;gap:1.5em;align-items:baseline;padding:.8em 1.5em;background:#263238;color:#eceff1}
    header a{color:#80cbc4}
  </style>
</head>
<body>
  <header>
    <strong>{{.Title}} API reference</strong>
    <a href="/">heatmap</a>
    <a href="{{.Spec}}">openapi.yaml</a>
    <span>GraphQL: POST /graphql</span>
  </header>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: {{.Spec}},
      dom_id: '#swagger-ui',
      docExpansion: 'list',
      tryItOutEnabled: true,
      presets: [SwaggerUIBundle.presets.apis],
    });
  </script>
</body>
</html>`))

// SetupDocs registers the API reference at /docs and the embedded contract
// at /docs/openapi.yaml.
func SetupDocs(app *fiber.App, title string) {
	if title == "" {
		title = defaultTitle
	}
	var page bytes.Buffer
	if err := docsTmpl.Execute(&page, struct{ Title, Spec string }{title, specPath}); err != nil {
		panic(err)
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(page.Bytes())
	})

	app.Get(specPath, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(api.OpenAPI)
	})
}
