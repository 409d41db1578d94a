package rest

import (
	"fmt"
	"net/http"
)

// StatusCodeRange is a class of HTTP status codes, like 4xx.
type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

var rangeNames = map[StatusCodeRange]string{
	Status1xx: "informational response",
	Status2xx: "success",
	Status3xx: "redirect",
	Status4xx: "client error",
	Status5xx: "server error",
}

func (sc StatusCodeRange) String() string {
	if name, ok := rangeNames[sc]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%d)", sc)
}

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	scr := StatusCodeRange(resp.StatusCode / 100)
	if scr < Status1xx || Status5xx < scr {
		return StatusUnknown
	}
	return scr
}

// MessageFor gives summaries of errors for each status code range.
type MessageFor map[StatusCodeRange]string

// For returns the message for scr, or the name of scr when there is not.
func (mf MessageFor) For(scr StatusCodeRange) string {
	if m, ok := mf[scr]; ok {
		return m
	}
	return scr.String()
}
