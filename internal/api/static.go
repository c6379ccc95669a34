package api

import (
	"embed"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

//go:embed web/index.html web/app.js web/app.css web/openapi.yaml
var embedded embed.FS

// embeddedAssets is the web/ directory of the binary.
func embeddedAssets() fs.FS {
	sub, err := fs.Sub(embedded, "web")
	if err != nil {
		panic(err)
	}
	return sub
}

// assets returns STATIC_DIR when it holds the page files, so the page can be
// edited without rebuilding; otherwise the embedded copy.
func (s *Server) assets() fs.FS {
	dir := s.Cfg.StaticDir
	if dir == "" {
		return embeddedAssets()
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		return embeddedAssets()
	}
	return os.DirFS(dir)
}

type indexData struct {
	MapsKey string
}

// IndexHandler renders the Route Planner page with the browser Maps key.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tmpl, err := template.ParseFS(s.assets(), "index.html")
	if err != nil {
		s.Log.Error("index template", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Page unavailable", err.Error(), r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, indexData{MapsKey: s.Cfg.GoogleMapsBrowserKey}); err != nil {
		s.Log.Warn("index render", zap.Error(err))
	}
}

// StaticHandler serves /static/app.js and /static/app.css.
func (s *Server) StaticHandler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/static/")
	switch name {
	case "app.js", "app.css":
	default:
		http.NotFound(w, r)
		return
	}
	b, err := fs.ReadFile(s.assets(), name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
