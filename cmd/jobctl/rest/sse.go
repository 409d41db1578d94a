package rest

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// Event is a server-sent event.
type Event struct {
	// event type. "message" when the event has no "event" field.
	Type string

	// last event id seen in the stream, if any.
	Id string

	// data fields joined with "\n".
	Data string

	// reconnection time, if the server sent.
	Retry time.Duration
}

// ReadEvents reads text/event-stream from r and calls handler for each event.
//
// Events without data are not dispatched, and neither is an event
// left incomplete (without a blank line) at the end of the stream.
//
// It returns nil at the end of r, or the error handler or r returned.
func ReadEvents(r io.Reader, handler func(Event) error) error {
	br := bufio.NewReader(r)

	lastId := ""
	var retry time.Duration
	eventType := ""
	data := new(strings.Builder)

	for {
		line, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// incomplete line or event is discarded.
			return nil
		} else if err != nil {
			return err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if data.Len() == 0 {
				eventType = ""
				continue
			}
			ev := Event{
				Type:  eventType,
				Id:    lastId,
				Data:  strings.TrimSuffix(data.String(), "\n"),
				Retry: retry,
			}
			if ev.Type == "" {
				ev.Type = "message"
			}
			eventType = ""
			data.Reset()
			if err := handler(ev); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			data.WriteString(value)
			data.WriteString("\n")
		case "id":
			if !strings.ContainsRune(value, 0) {
				lastId = value
			}
		case "retry":
			if ms, err := strconv.ParseUint(value, 10, 63); err == nil {
				retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}
