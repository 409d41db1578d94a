package echoutil

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Proxy sends the request of c to url with the same method and body,
// and copies the response back to c as it comes.
//
// Headers of the request are copied, except "Host" and ones in override,
// and then headers in override are set.
//
// When the request to url fails, it responds 502 Bad Gateway.
func Proxy(c echo.Context, client *http.Client, url string, override http.Header) error {
	src := c.Request()
	req, err := http.NewRequestWithContext(src.Context(), src.Method, url, src.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	except := []string{"host"}
	for k := range override {
		except = append(except, k)
	}
	CopyHeader(req.Header, src.Header, except...)
	for k, vs := range override {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway).SetInternal(err)
	}
	defer resp.Body.Close()

	return CopyResponse(c, resp)
}

// CopyHeader adds headers in src to dest, except ones named in except (case insensitive).
func CopyHeader(dest http.Header, src http.Header, except ...string) {
	exc := map[string]struct{}{}
	for _, x := range except {
		exc[strings.ToLower(x)] = struct{}{}
	}

	for k, vs := range src {
		if _, ok := exc[strings.ToLower(k)]; ok {
			continue
		}
		for _, v := range vs {
			dest.Add(k, v)
		}
	}
}

// CopyResponse writes resp to c, flushing each chunk read from resp.
func CopyResponse(c echo.Context, resp *http.Response) error {
	ctx := c.Request().Context()
	dst := c.Response()
	CopyHeader(dst.Header(), resp.Header, "content-length", "transfer-encoding")
	if 0 <= resp.ContentLength {
		dst.Header().Set(echo.HeaderContentLength, strconv.FormatInt(resp.ContentLength, 10))
	}
	dst.WriteHeader(resp.StatusCode)

	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := resp.Body.Read(buf)
		if 0 < n {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			dst.Flush()
		}
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}
