package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorMessage is the JSON body of error responses,
// both the ones the job API returns and the ones jobtrackd returns.
type ErrorMessage struct {
	Reason string `json:"reason"`
	Advice string `json:"advice,omitempty"`

	// Cause is kept on the server side only.
	Cause error `json:"-"`
}

var errNoReason = errors.New(`error message without "reason"`)

func (em *ErrorMessage) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	reason, ok := raw["reason"]
	if !ok {
		return errNoReason
	}

	out := ErrorMessage{}
	if err := json.Unmarshal(reason, &out.Reason); err != nil {
		return err
	}
	if advice, ok := raw["advice"]; ok {
		if err := json.Unmarshal(advice, &out.Advice); err != nil {
			return err
		}
	}
	*em = out
	return nil
}

func (em ErrorMessage) Error() string {
	sb := new(strings.Builder)
	sb.WriteString(em.Reason)
	if em.Advice != "" {
		sb.WriteString("\n" + em.Advice)
	}
	if em.Cause != nil {
		sb.WriteString("\n caused by: " + em.Cause.Error())
	}
	return sb.String()
}

func (em ErrorMessage) String() string {
	return em.Error()
}

func (em ErrorMessage) Unwrap() error {
	return em.Cause
}

// Respond builds an echo.HTTPError whose message is rendered as ErrorMessage.
//
// Empty advice and nil cause are left out.
func Respond(status int, reason string, advice string, cause error) *echo.HTTPError {
	em := ErrorMessage{Reason: reason, Advice: advice, Cause: cause}
	return echo.NewHTTPError(status, em).SetInternal(em)
}

func NotFound(advice string) *echo.HTTPError {
	return Respond(http.StatusNotFound, "not found", advice, nil)
}

func BadRequest(advice string, cause error) *echo.HTTPError {
	return Respond(http.StatusBadRequest, "bad request", advice, cause)
}

// BadGateway reports that the job API behind jobtrackd failed.
func BadGateway(cause error) *echo.HTTPError {
	return Respond(
		http.StatusBadGateway, "job API is not available",
		"retry later, or ask your system admin.", cause,
	)
}

func InternalServerError(cause error) *echo.HTTPError {
	return Respond(http.StatusInternalServerError, "unexpected error", "", cause)
}
