package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
)

// staticFixture lays out:
//
//	base/outside.txt
//	base/web/index.html
//	base/web/app.js
//	base/web/assets/        (directory)
//	base/web/leak.txt -> ../outside.txt
func staticFixture(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := t.TempDir()
	web := filepath.Join(base, "web")
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(web, "assets"), 0o755))
	must(os.WriteFile(filepath.Join(base, "outside.txt"), []byte("secret"), 0o644))
	must(os.WriteFile(filepath.Join(web, "index.html"), []byte("<h1>index</h1>"), 0o644))
	must(os.WriteFile(filepath.Join(web, "app.js"), []byte("console.log(1)"), 0o644))
	symlinked := os.Symlink(filepath.Join(base, "outside.txt"), filepath.Join(web, "leak.txt")) == nil

	h, err := NewStaticHandler(web, "index.html")
	must(err)

	r := gin.New()
	r.GET("/", h.Index)
	r.NoRoute(h.Serve)

	if !symlinked {
		return r, ""
	}
	return r, "/leak.txt"
}

func TestStaticHandler_Serve(t *testing.T) {
	r, leak := staticFixture(t)

	cases := []struct {
		name   string
		method string
		path   string
		want   int
		body   string
	}{
		{name: "index", method: http.MethodGet, path: "/", want: http.StatusOK, body: "<h1>index</h1>"},
		{name: "asset", method: http.MethodGet, path: "/app.js", want: http.StatusOK, body: "console.log(1)"},
		{name: "head asset", method: http.MethodHead, path: "/app.js", want: http.StatusOK},
		{name: "missing", method: http.MethodGet, path: "/nope.css", want: http.StatusNotFound},
		{name: "directory", method: http.MethodGet, path: "/assets", want: http.StatusNotFound},
		{name: "dot-dot", method: http.MethodGet, path: "/../outside.txt", want: http.StatusNotFound},
		{name: "encoded dot-dot", method: http.MethodGet, path: "/%2e%2e/outside.txt", want: http.StatusNotFound},
		{name: "post to file", method: http.MethodPost, path: "/app.js", want: http.StatusNotFound},
	}
	if leak != "" {
		cases = append(cases, struct {
			name   string
			method string
			path   string
			want   int
			body   string
		}{name: "symlink escape", method: http.MethodGet, path: leak, want: http.StatusNotFound})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			if w.Code != tc.want {
				t.Fatalf("want %d got %d (%s)", tc.want, w.Code, w.Body.String())
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("unexpected body %q", w.Body.String())
			}
			if w.Body.String() == "secret" {
				t.Fatalf("served a file outside the root")
			}
		})
	}
}

func TestNewStaticHandler_RejectsBadRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewStaticHandler(filepath.Join(dir, "missing"), "index.html"); err == nil {
		t.Fatalf("expected error for missing root")
	}
	if _, err := NewStaticHandler(file, "index.html"); err == nil {
		t.Fatalf("expected error for file root")
	}
}
