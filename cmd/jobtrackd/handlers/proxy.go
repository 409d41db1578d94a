package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/opst/jobtracker/pkg/echoutil"
)

// ProxyLogFileHandler relays the log file of the job from the job API as it is.
//
// The Authorization header of the request is replaced with the bearer token of jobtrackd.
func ProxyLogFileHandler(client *http.Client, apiRoot string, token string, param string) echo.HandlerFunc {
	root := strings.TrimSuffix(apiRoot, "/")
	override := http.Header{"Authorization": nil}
	if token != "" {
		override.Set("Authorization", "Bearer "+token)
	}

	return func(c echo.Context) error {
		target := root + "/jobs/" + url.PathEscape(c.Param(param)) + "/logs"
		return echoutil.Proxy(c, client, target, override)
	}
}
