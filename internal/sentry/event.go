// Package sentry defines a tolerant model of the Sentry webhook event
// payload. Every field is optional; Parse never fails on missing or
// oddly-shaped nested data, only on input that is not JSON at all.
package sentry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Event is the normalized alert payload extracted from a Sentry webhook.
type Event struct {
	EventID     string         `json:"event_id"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Timestamp   Timestamp      `json:"timestamp"`
	Platform    string         `json:"platform"`
	Environment string         `json:"environment"`
	Project     string         `json:"project"`
	Logger      string         `json:"logger"`
	URL         string         `json:"url"`
	User        *User          `json:"user"`
	Exception   ExceptionList  `json:"exception"`
	Tags        Tags           `json:"tags"`
	Extra       map[string]any `json:"extra"`
	Contexts    Contexts       `json:"contexts"`
	Breadcrumbs BreadcrumbList `json:"breadcrumbs"`
	Metadata    *Metadata      `json:"metadata"`
}

// User identifies the user affected by the error.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IPAddress string `json:"ip_address"`
}

// Metadata carries Sentry's issue-level metadata.
type Metadata struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Filename string `json:"filename"`
	Function string `json:"function"`
}

// Exception is one entry of the event's exception chain.
type Exception struct {
	Type       string      `json:"type"`
	Value      string      `json:"value"`
	Stacktrace *Stacktrace `json:"stacktrace"`
}

// Stacktrace holds ordered stack frames, oldest first.
type Stacktrace struct {
	Frames []Frame `json:"frames"`
}

// Frame is a single stack frame.
type Frame struct {
	Filename    string `json:"filename"`
	Function    string `json:"function"`
	Lineno      int    `json:"lineno"`
	Colno       int    `json:"colno"`
	AbsPath     string `json:"abs_path"`
	ContextLine string `json:"context_line"`
	InApp       bool   `json:"in_app"`
}

// ContextInfo describes a runtime context entry such as browser or OS.
type ContextInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

// Contexts groups the runtime contexts the renderers care about.
type Contexts struct {
	Browser  *ContextInfo `json:"browser"`
	OS       *ContextInfo `json:"os"`
	ClientOS *ContextInfo `json:"client_os"`
}

// Breadcrumb is one entry of the event's breadcrumb trail.
type Breadcrumb struct {
	Timestamp Timestamp `json:"timestamp"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// Tag is a single key/value label attached to the event.
type Tag struct {
	Key   string
	Value string
}

// Parse decodes a Sentry payload into a normalized Event. Fields with an
// unexpected shape are dropped rather than failing the whole payload;
// only input that is not valid JSON is an error.
func Parse(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// Mistyped field: everything before and after it decoded fine.
			return &ev, nil
		}
		return nil, fmt.Errorf("parse sentry payload: %w", err)
	}
	return &ev, nil
}

// Title resolves the display title: metadata title, then message,
// then a fixed fallback.
func (e *Event) Title() string {
	if e.Metadata != nil && e.Metadata.Title != "" {
		return e.Metadata.Title
	}
	if e.Message != "" {
		return e.Message
	}
	return "Unknown Error"
}

// LevelOrUnknown returns the severity level, or "unknown" when absent.
func (e *Event) LevelOrUnknown() string {
	if e.Level == "" {
		return "unknown"
	}
	return e.Level
}

// PrimaryException returns the first exception entry, or nil.
func (e *Event) PrimaryException() *Exception {
	if len(e.Exception) == 0 {
		return nil
	}
	return &e.Exception[0]
}

// Frames returns the primary exception's stack frames, oldest first.
func (e *Event) Frames() []Frame {
	exc := e.PrimaryException()
	if exc == nil || exc.Stacktrace == nil {
		return nil
	}
	return exc.Stacktrace.Frames
}

// OSContext returns the OS context, falling back to client_os.
func (e *Event) OSContext() *ContextInfo {
	if e.Contexts.OS != nil {
		return e.Contexts.OS
	}
	return e.Contexts.ClientOS
}

// ExceptionList accepts both wire forms Sentry emits:
// {"values": [...]} and a bare array.
type ExceptionList []Exception

func (l *ExceptionList) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Values []Exception `json:"values"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Values != nil {
		*l = wrapped.Values
		return nil
	}
	var bare []Exception
	if err := json.Unmarshal(data, &bare); err == nil {
		*l = bare
	}
	return nil
}

// BreadcrumbList accepts both {"values": [...]} and a bare array.
type BreadcrumbList []Breadcrumb

func (l *BreadcrumbList) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Values []Breadcrumb `json:"values"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Values != nil {
		*l = wrapped.Values
		return nil
	}
	var bare []Breadcrumb
	if err := json.Unmarshal(data, &bare); err == nil {
		*l = bare
	}
	return nil
}

// Tags accepts the three wire forms Sentry uses in different payload
// versions: [["key","value"], ...], [{"key":..,"value":..}, ...] and a
// plain object map. Order is preserved for the array forms.
type Tags []Tag

func (t *Tags) UnmarshalJSON(data []byte) error {
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err == nil {
		out := make(Tags, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, Tag{Key: p[0], Value: p[1]})
		}
		*t = out
		return nil
	}

	var objs []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &objs); err == nil {
		out := make(Tags, 0, len(objs))
		for _, o := range objs {
			out = append(out, Tag{Key: o.Key, Value: o.Value})
		}
		*t = out
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		out := make(Tags, 0, len(m))
		for k, v := range m {
			out = append(out, Tag{Key: k, Value: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		*t = out
	}
	return nil
}

// Timestamp accepts epoch seconds as a JSON number, a numeric string,
// or an RFC 3339 string. An unset or unparseable value reads as absent.
type Timestamp struct {
	t   time.Time
	set bool
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		ts.fromEpoch(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		ts.fromEpoch(n)
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ts.t = t
		ts.set = true
	}
	return nil
}

func (ts *Timestamp) fromEpoch(sec float64) {
	ts.t = time.UnixMilli(int64(sec * 1000))
	ts.set = true
}

// Time returns the parsed time and whether the timestamp was present.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.set
}
