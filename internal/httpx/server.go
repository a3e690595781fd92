package httpx

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(log *slog.Logger, publicDir string) *chi.Mux {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.NotFound(staticFiles(publicDir))
	return r
}

// staticFiles serves GET requests from dir; "/" maps to index.html.
// Anything else is a plain-text 404.
func staticFiles(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir != "" && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			p := path.Clean("/" + r.URL.Path)
			if p == "/" {
				p = "/index.html"
			}
			fp := filepath.Join(dir, filepath.FromSlash(p))
			if st, err := os.Stat(fp); err == nil && st.Mode().IsRegular() {
				http.ServeFile(w, r, fp)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not found"))
	}
}
