package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

const defaultTitle = "Trackheat"

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body{margin:0;font-family:system-ui,sans-serif;display:flex;flex-direction:column;height:100vh}
    header{padding:.75rem 1rem;display:flex;gap:1rem;align-items:center;flex-wrap:wrap;border-bottom:1px solid #ddd}
    h1{font-size:1.1rem;margin:0}
    iframe{flex:1;border:0;width:100%}
    .empty{padding:2rem;color:#666}
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    {{if .HasData}}
    <form method="get" action="/">
      <label>From <input type="date" name="start" value="{{.Start}}" min="{{.Min}}" max="{{.Max}}"></label>
      <label>To <input type="date" name="end" value="{{.End}}" min="{{.Min}}" max="{{.Max}}"></label>
      <button type="submit">Apply</button>
    </form>
    <span>{{.Shown}} of {{.Total}} points shown</span>
    {{end}}
  </header>
  {{if .Shown}}
  <iframe src="{{.Src}}" title="heatmap"></iframe>
  {{else}}
  <p class="empty">No GPS data found.</p>
  {{end}}
</body>
</html>`))

type indexView struct {
	Title   string
	HasData bool
	Start   string
	End     string
	Min     string
	Max     string
	Shown   int
	Total   int
	Src     template.URL
}

// IndexHandler serves the date picker page that frames the heatmap.
func IndexHandler(deps *Dependencies) fiber.Handler {
	title := deps.Title
	if title == "" {
		title = defaultTitle
	}

	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		w, err := parseWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		view := indexView{Title: title}

		summary, err := deps.Heatmap.Summary(ctx)
		if err != nil && !errors.Is(err, domain.ErrEmptyDataset) {
			return errFromDomain(c, err)
		}
		view.Total = summary.Points
		view.Min = summary.FirstDate
		view.Max = summary.LastDate
		view.HasData = summary.FirstDate != ""

		if summary.Points > 0 {
			w, err = deps.Heatmap.ResolveWindow(ctx, w)
			if err != nil {
				return errFromDomain(c, err)
			}
			points, _, err := deps.Heatmap.Points(ctx, w)
			if err != nil {
				return errFromDomain(c, err)
			}
			view.Shown = len(points)

			q := url.Values{}
			if !w.Start.IsZero() {
				view.Start = w.Start.String()
				q.Set("start", view.Start)
			}
			if !w.End.IsZero() {
				view.End = w.End.String()
				q.Set("end", view.End)
			}
			view.Src = template.URL("/v1/heatmap?" + q.Encode())
		}

		var buf bytes.Buffer
		if err := indexTmpl.Execute(&buf, view); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Send(buf.Bytes())
	}
}
