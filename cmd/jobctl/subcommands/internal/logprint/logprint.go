// Package logprint writes parsed log entries for terminals or as JSON lines.
package logprint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/opst/jobtracker/pkg/logparse"
)

type Printer func(logparse.Entry) error

func New(w io.Writer, asJson bool) Printer {
	if asJson {
		enc := json.NewEncoder(w)
		return func(e logparse.Entry) error {
			return enc.Encode(e)
		}
	}
	return func(e logparse.Entry) error {
		_, err := fmt.Fprintln(w, logparse.Format(e))
		return err
	}
}

// All prints entries in order, stopping at the first error.
func (p Printer) All(entries []logparse.Entry) error {
	for _, e := range entries {
		if err := p(e); err != nil {
			return err
		}
	}
	return nil
}
