package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/quotegate/internal/middleware"
)

var errOutsideRoot = errors.New("path escapes static root")

// StaticHandler serves the front end from a single directory.
//
// Every path is resolved inside root, symlinks included; anything that would
// land outside it, or is not a regular file, is answered with 404.
type StaticHandler struct {
	root  string
	index string
}

// NewStaticHandler resolves root to an absolute, symlink-free directory.
//
// Parameters:
//   - root (string): directory holding the front-end files.
//   - index (string): document served for GET / (e.g., "index.html").
func NewStaticHandler(root, index string) (*StaticHandler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("static root %q: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("static root %q: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("static root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %q is not a directory", root)
	}
	return &StaticHandler{root: resolved, index: index}, nil
}

// Index handles GET /.
func (h *StaticHandler) Index(c *gin.Context) {
	h.serve(c, h.index)
}

// Serve handles every unmatched route: GET and HEAD map to files under the
// root, other methods get 404.
func (h *StaticHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		middleware.AbortWithError(c, http.StatusNotFound, "not found", nil)
		return
	}
	h.serve(c, c.Request.URL.Path)
}

func (h *StaticHandler) serve(c *gin.Context, name string) {
	full, err := h.resolve(name)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "not found", err)
		return
	}

	f, err := os.Open(full)
	if err != nil {
		middleware.AbortWithError(c, http.StatusNotFound, "not found", err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		middleware.AbortWithError(c, http.StatusNotFound, "not found", err)
		return
	}

	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

// resolve maps a URL path to a file under root.
func (h *StaticHandler) resolve(name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	full := filepath.Join(h.root, filepath.FromSlash(clean))

	real, err := filepath.EvalSymlinks(full)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(h.root, real)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return real, nil
}
