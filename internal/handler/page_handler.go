package handler

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkwise/internal/embed"
)

// The markup here is a shell only; styling and scripts live with the front-end assets.
var pages = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Dashboard</title></head>
<body class="app-layout">
<nav>{{range .Apps}}<button class="nav-item" data-target="{{.Name}}">{{.Label}}</button>{{end}}</nav>
{{range .Apps}}<section id="{{.Name}}-view" class="app-view hidden"><iframe src="{{.Src}}" title="{{.Label}}"></iframe></section>
{{end}}</body></html>`))

var _ = template.Must(pages.New("linkwise").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Linkwise</title></head>
<body class="{{if .FlatChrome}}chrome-flat{{end}}">
{{if not .HideAuth}}<div id="authScreen"></div>{{end}}
<div id="appScreen"{{if not .HideAuth}} class="hidden"{{end}}><header></header><div id="linksContainer" data-cards="/api/links/cards"></div></div>
</body></html>`))

var _ = template.Must(pages.New("turbodo").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Turbo-Do</title></head>
<body class="{{if .FlatChrome}}chrome-flat{{end}}"><ul id="todo"><li id="plus-row"></li></ul></body></html>`))

type appTab struct {
	Name  string
	Label string
	Src   string
}

// PageHandler serves the dashboard shell and the app pages it embeds.
type PageHandler struct {
	hostSurface embed.Surface
}

func NewPageHandler() *PageHandler {
	return &PageHandler{hostSurface: embed.Surface{Version: embed.Version, HideAuth: true, FlatChrome: true}}
}

func (h *PageHandler) render(c *gin.Context, name string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pages.ExecuteTemplate(c.Writer, name, data); err != nil {
		_ = c.Error(err)
	}
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	h.render(c, "dashboard", gin.H{"Apps": []appTab{
		{Name: "linkwise", Label: "Linkwise", Src: h.hostSurface.URL("/apps/linkwise/")},
		{Name: "turbodo", Label: "Turbo-Do", Src: h.hostSurface.URL("/apps/turbodo/")},
	}})
}

func (h *PageHandler) Linkwise(c *gin.Context) {
	h.render(c, "linkwise", embed.Parse(c.Request.URL.Query()))
}

func (h *PageHandler) TurboDo(c *gin.Context) {
	h.render(c, "turbodo", embed.Parse(c.Request.URL.Query()))
}
