package server

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"projviz/internal/types"
)

//go:embed templates/tree.html
var templateFiles embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFiles, "templates/tree.html"))

type indexTemplateData struct {
	ProjectName string
	Framework   string
}

func (server *Server) handleIndex(writer http.ResponseWriter, _ *http.Request) {
	frameworkLabel := "none"
	if server.result.Framework != types.FrameworkNone {
		frameworkLabel = string(server.result.Framework)
	}
	data := indexTemplateData{
		ProjectName: server.result.Root.Name,
		Framework:   frameworkLabel,
	}
	writer.Header().Set(headerContentType, "text/html; charset=utf-8")
	if executeError := indexTemplate.Execute(writer, data); executeError != nil {
		server.logger.Warn("rendering index template", zap.Error(executeError))
	}
}
