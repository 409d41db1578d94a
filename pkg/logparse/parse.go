// Package logparse extracts training metrics from lines of job logs.
//
// A line like
//
//	[10:00:15] epoch:3, OA: 85.21%, Kappa: 0.81, cls Acc: [0.9, 0.8], P: 0.84, R: 0.83, F1: 0.835, loss:0.42
//
// is parsed into a *MetricEntry. Lines without "epoch:<integer>" are *MessageEntry.
package logparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const number = `([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)`

var (
	leadingTimestamp = regexp.MustCompile(`^\s*\[([^\]]*)\]\s*`)

	// "epoch" may be a part of a longer key, like "val_epoch".
	epoch = regexp.MustCompile(`(?i)epoch\s*:\s*(\d+)`)

	oa        = regexp.MustCompile(`(?i)\bOA\s*:\s*` + number + `\s*%?`)
	kappa     = regexp.MustCompile(`(?i)\bkappa\s*:\s*` + number)
	classAcc  = regexp.MustCompile(`(?i)\bcls\s*acc\s*:\s*\[([^\]]*)\]`)
	precision = regexp.MustCompile(`(?i)\b(?:precision|P)\s*:\s*` + number)
	recall    = regexp.MustCompile(`(?i)\b(?:recall|R)\s*:\s*` + number)
	f1        = regexp.MustCompile(`(?i)\bF1\s*:\s*` + number)
	loss      = regexp.MustCompile(`(?i)\bloss\s*:\s*` + number)
)

// Parse converts a line of job log into an Entry.
//
// It never fails. Metrics which cannot be read are left nil.
func Parse(line string) Entry {
	rest := line
	var timestamp *string
	if m := leadingTimestamp.FindStringSubmatch(line); m != nil {
		ts := m[1]
		timestamp = &ts
		rest = line[len(m[0]):]
	}

	em := epoch.FindStringSubmatch(rest)
	if em == nil {
		return &MessageEntry{Message: rest, Raw: line, Time: timestamp}
	}

	ent := &MetricEntry{Raw: line, Time: timestamp}
	if n, err := strconv.Atoi(em[1]); err == nil {
		ent.Epoch = n
	}
	ent.OA = floatOf(oa, rest)
	ent.Kappa = floatOf(kappa, rest)
	ent.ClassAccuracy = floatsOf(classAcc, rest)
	ent.Precision = floatOf(precision, rest)
	ent.Recall = floatOf(recall, rest)
	ent.F1 = floatOf(f1, rest)
	ent.Loss = floatOf(loss, rest)
	return ent
}

// ParseLines parses each line of a whole log text.
//
// A trailing newline does not make an empty entry.
func ParseLines(text string) []Entry {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []Entry{}
	}
	lines := strings.Split(text, "\n")
	ret := make([]Entry, 0, len(lines))
	for _, l := range lines {
		ret = append(ret, Parse(strings.TrimSuffix(l, "\r")))
	}
	return ret
}

func floatOf(pattern *regexp.Regexp, s string) *float64 {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, ok := parseFloat(m[1])
	if !ok {
		return nil
	}
	return &v
}

func floatsOf(pattern *regexp.Regexp, s string) []float64 {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	if strings.TrimSpace(m[1]) == "" {
		return nil
	}

	items := strings.Split(m[1], ",")
	ret := make([]float64, 0, len(items))
	for _, it := range items {
		v, ok := parseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(it), "%")))
		if !ok {
			return nil
		}
		ret = append(ret, v)
	}
	return ret
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
