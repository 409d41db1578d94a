package echoutil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// StartEventStream writes headers of a text/event-stream response.
func StartEventStream(c echo.Context) {
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()
}

// WriteEvent writes one server-sent event and flushes it.
//
// Each line of data is sent as a "data:" field. event is omitted when it is empty.
func WriteEvent(c echo.Context, event string, data string) error {
	b := new(strings.Builder)
	if event != "" {
		fmt.Fprintf(b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(b, "data: %s\n", strings.TrimSuffix(line, "\r"))
	}
	b.WriteString("\n")

	if _, err := c.Response().Write([]byte(b.String())); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
