package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/jobtracker/cmd/jobtrackd/handlers"
	httptestutil "github.com/opst/jobtracker/internal/testutils/http"
)

func TestProxyLogFileHandler(t *testing.T) {
	type then struct {
		authorization string
	}

	theory := func(token string, then then) func(*testing.T) {
		return func(t *testing.T) {
			var path, auth string
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.EscapedPath()
				auth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("line 1\nline 2\n"))
			}))
			defer upstream.Close()

			e := echo.New()
			e.Pre(middleware.AddTrailingSlash())
			e.GET(
				"/api/tracker/jobs/:jobId/logfile/",
				handlers.ProxyLogFileHandler(upstream.Client(), upstream.URL+"/api/", token, "jobId"),
			)

			resp := httptestutil.Serve(
				e, http.MethodGet, "/api/tracker/jobs/train_001/logfile", nil,
				httptestutil.WithHeader("Authorization", "Bearer from-client"),
			)
			if resp.Code != http.StatusOK {
				t.Fatalf("status code: %d", resp.Code)
			}
			body, _ := io.ReadAll(resp.Body)
			if string(body) != "line 1\nline 2\n" {
				t.Errorf("body: %q", body)
			}
			if ct := resp.Header().Get("Content-Type"); ct != "text/plain" {
				t.Errorf("Content-Type: %s", ct)
			}
			if path != "/api/jobs/train_001/logs" {
				t.Errorf("upstream path: %s", path)
			}
			if auth != then.authorization {
				t.Errorf("Authorization: want %q, got %q", then.authorization, auth)
			}
		}
	}

	t.Run("with token, the header is replaced", theory(
		"server-token", then{authorization: "Bearer server-token"},
	))
	t.Run("without token, the header is dropped", theory(
		"", then{authorization: ""},
	))
}
