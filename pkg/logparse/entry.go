package logparse

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Kind string

const (
	KindMetrics Kind = "metrics"
	KindMessage Kind = "message"
)

// Entry is a parsed log line: either *MetricEntry or *MessageEntry.
type Entry interface {
	Kind() Kind

	// line as received, before parsing.
	RawLine() string

	// text in leading brackets of the line, if any.
	Timestamp() (string, bool)

	isEntry()
}

// MetricEntry is a line reporting metrics of a training epoch.
//
// Metrics not found in the line are nil.
type MetricEntry struct {
	Epoch         int       `json:"epoch"`
	OA            *float64  `json:"oa,omitempty"`
	Kappa         *float64  `json:"kappa,omitempty"`
	ClassAccuracy []float64 `json:"cls_acc,omitempty"`
	Precision     *float64  `json:"precision,omitempty"`
	Recall        *float64  `json:"recall,omitempty"`
	F1            *float64  `json:"f1,omitempty"`
	Loss          *float64  `json:"loss,omitempty"`
	Raw           string    `json:"raw"`
	Time          *string   `json:"timestamp,omitempty"`
}

// MessageEntry is any other line.
type MessageEntry struct {
	Message string  `json:"message"`
	Raw     string  `json:"raw"`
	Time    *string `json:"timestamp,omitempty"`
}

func (*MetricEntry) Kind() Kind  { return KindMetrics }
func (*MessageEntry) Kind() Kind { return KindMessage }

func (m *MetricEntry) RawLine() string  { return m.Raw }
func (m *MessageEntry) RawLine() string { return m.Raw }

func (m *MetricEntry) Timestamp() (string, bool)  { return deref(m.Time) }
func (m *MessageEntry) Timestamp() (string, bool) { return deref(m.Time) }

func (*MetricEntry) isEntry()  {}
func (*MessageEntry) isEntry() {}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func (m *MetricEntry) MarshalJSON() ([]byte, error) {
	type plain MetricEntry
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{Type: KindMetrics, plain: (*plain)(m)})
}

func (m *MessageEntry) MarshalJSON() ([]byte, error) {
	type plain MessageEntry
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{Type: KindMessage, plain: (*plain)(m)})
}

// Unmarshal reads an Entry from its JSON form.
func Unmarshal(b []byte) (Entry, error) {
	head := struct {
		Type Kind `json:"type"`
	}{}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case KindMetrics:
		m := new(MetricEntry)
		if err := json.Unmarshal(b, (*metricBody)(m)); err != nil {
			return nil, err
		}
		return m, nil
	case KindMessage:
		m := new(MessageEntry)
		if err := json.Unmarshal(b, (*messageBody)(m)); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown log entry type: %q", head.Type)
	}
}

// aliases without MarshalJSON.
type metricBody MetricEntry
type messageBody MessageEntry

// Format renders an entry in a line for terminals.
func Format(e Entry) string {
	sb := new(strings.Builder)
	if ts, ok := e.Timestamp(); ok {
		fmt.Fprintf(sb, "[%s] ", ts)
	}

	switch ent := e.(type) {
	case *MessageEntry:
		sb.WriteString(ent.Message)
	case *MetricEntry:
		fmt.Fprintf(sb, "epoch %d", ent.Epoch)
		field := func(name string, v *float64) {
			if v != nil {
				fmt.Fprintf(sb, " | %s %.4g", name, *v)
			}
		}
		field("OA", ent.OA)
		field("Kappa", ent.Kappa)
		field("P", ent.Precision)
		field("R", ent.Recall)
		field("F1", ent.F1)
		field("loss", ent.Loss)
		if len(ent.ClassAccuracy) != 0 {
			cls := make([]string, len(ent.ClassAccuracy))
			for i, a := range ent.ClassAccuracy {
				cls[i] = fmt.Sprintf("%.4g", a)
			}
			fmt.Fprintf(sb, " | cls Acc [%s]", strings.Join(cls, ", "))
		}
	}
	return sb.String()
}
