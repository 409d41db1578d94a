package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cerr "github.com/opst/jobtracker/cmd/jobctl/errors"
	apierr "github.com/opst/jobtracker/pkg/api/types/errors"
)

// unmarshal http response which has json content.
//
// It returns error if...
//
// - status code is in 4xx or 5xx (or unknown),
//
// - the body cannot be read, or
//
// - the body is not shaped of v.
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	body, err := unmarshalStreamResponse(resp, messageFor)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return cerr.New(
			fmt.Sprintf("unexpected response: %s (status code = %d)", err, resp.StatusCode),
			cerr.WithCause(err),
		)
	}
	return nil
}

// unmarshalStreamResponse returns the body of successful responses as it is.
//
// Otherwise, it reads the body to build an error.
func unmarshalStreamResponse(resp *http.Response, messageFor MessageFor) (io.ReadCloser, error) {
	scr := StatusCodeRangeOf(resp)
	if scr == Status2xx {
		return resp.Body, nil
	}
	message := messageFor.For(scr)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cerr.New(
			fmt.Sprintf("%s\ncannot read server message: %s", message, err),
			cerr.WithCause(err),
		)
	}

	detail := parseErrorMessage(body)
	return nil, cerr.New(
		message,
		cerr.WithVerbose(fmt.Sprintf("status code = %d", resp.StatusCode)),
		cerr.WithDetail(func(summary string) (string, error) {
			if detail == "" {
				return summary, nil
			}
			return summary + "\n" + detail, nil
		}),
	)
}

func jsonUnmarshal[T any](buf []byte) (*T, error) {
	ret := new(T)
	if err := json.Unmarshal(buf, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// parseErrorMessage formats the body of an error response.
//
// Bodies like {"reason": ...} or {"message": ...} are indented. Others are returned as is.
func parseErrorMessage(body []byte) string {
	if eresp, err := jsonUnmarshal[apierr.ErrorMessage](body); err == nil {
		if detail, err := json.MarshalIndent(eresp, "", "    "); err == nil {
			return string(detail)
		}
	}

	if msg, err := jsonUnmarshal[struct {
		Message *string `json:"message"`
	}](body); err == nil && msg.Message != nil {
		if detail, err := json.MarshalIndent(msg, "", "    "); err == nil {
			return string(detail)
		}
	}

	return string(body)
}
