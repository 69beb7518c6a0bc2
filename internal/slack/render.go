package slack

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fabric0de/sentrybridge/internal/sentry"
)

// Style selects which fields a rendered message includes.
type Style string

const (
	StyleBasic    Style = "basic"
	StyleDetailed Style = "detailed"
	StyleGrouped  Style = "grouped"
)

// Placeholders used when an optional payload field is absent.
const (
	placeholderNA      = "N/A"
	placeholderUnknown = "Unknown"
	noTags             = "No tags"
)

// basicFrameLimit is how many trailing stack frames non-detailed
// styles keep.
const basicFrameLimit = 3

// breadcrumbLimit is how many trailing breadcrumbs the detailed style
// shows.
const breadcrumbLimit = 5

// ParseStyle validates a style string. The empty string means basic.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "":
		return StyleBasic, nil
	case StyleBasic, StyleDetailed, StyleGrouped:
		return Style(s), nil
	}
	return "", fmt.Errorf("unknown message style %q", s)
}

// Render converts an event into the block sequence for the given style.
// occurrences is the number of previously recorded events for the
// webhook; only the grouped style reads it.
func Render(style Style, ev *sentry.Event, occurrences int64) Message {
	switch style {
	case StyleDetailed:
		return renderDetailed(ev)
	case StyleGrouped:
		return renderGrouped(ev, occurrences)
	default:
		return renderBasic(ev)
	}
}

func renderBasic(ev *sentry.Event) Message {
	blocks := []Block{
		Header("🚨 Sentry Alert"),
		Section("*Error:* " + ev.Title()),
		FieldSection(
			Field("Type", exceptionType(ev)),
			Field("Environment", orNA(ev.Environment)),
			Field("Level", ev.LevelOrUnknown()),
			Field("Time", formatTimestamp(ev.Timestamp)),
		),
	}

	if stack := formatStack(ev.Frames(), basicFrameLimit); stack != "" {
		blocks = append(blocks, Section("*Stack Trace:*\n"+stack))
	}
	blocks = append(blocks, userFields(ev.User)...)
	blocks = append(blocks, linkBlocks(ev.URL, "View in Sentry →")...)

	return Message{Blocks: blocks}
}

func renderDetailed(ev *sentry.Event) Message {
	blocks := []Block{
		Header("🔍 Detailed Sentry Alert"),
		Section(fmt.Sprintf("*Error:* %s\n*Type:* %s\n*Value:* %s",
			ev.Title(), exceptionType(ev), exceptionValue(ev))),
		FieldSection(
			Field("Type", exceptionType(ev)),
			Field("Environment", orNA(ev.Environment)),
			Field("Level", ev.LevelOrUnknown()),
			Field("Time", formatTimestamp(ev.Timestamp)),
		),
	}

	if stack := formatStack(ev.Frames(), 0); stack != "" {
		blocks = append(blocks, Section("*Stack Trace:*\n"+stack))
	}
	blocks = append(blocks, userFields(ev.User)...)

	browser, os := ev.Contexts.Browser, ev.OSContext()
	if browser != nil || os != nil {
		blocks = append(blocks, FieldSection(
			Field("Browser", formatContext(browser)),
			Field("OS", formatContext(os)),
		))
	}

	blocks = append(blocks, Section("*Tags:*\n"+formatTags(ev.Tags)))

	if crumbs := formatBreadcrumbs(ev.Breadcrumbs); crumbs != "" {
		blocks = append(blocks, Section("*Recent Breadcrumbs:*\n"+crumbs))
	}
	if extra := formatExtra(ev.Extra); extra != "" {
		blocks = append(blocks, Section("*Extra Data:*\n"+extra))
	}
	blocks = append(blocks, linkBlocks(ev.URL, "View in Sentry →")...)

	return Message{Blocks: blocks}
}

func renderGrouped(ev *sentry.Event, occurrences int64) Message {
	firstSeen := "Now"
	if t, ok := ev.Timestamp.Time(); ok {
		firstSeen = formatTime(t)
	}

	pattern := "*Occurrence Pattern:*\n• First recorded occurrence\n• Monitoring for similar errors"
	if occurrences > 0 {
		pattern = fmt.Sprintf("*Occurrence Pattern:*\n• %d previous occurrence(s) recorded\n• Monitoring for similar errors", occurrences)
	}

	blocks := []Block{
		Header("📊 Grouped Sentry Alert"),
		Section("*Error Pattern:* " + ev.Title()),
		FieldSection(
			Field("Type", exceptionType(ev)),
			Field("Environment", orNA(ev.Environment)),
			Field("Project", orNA(ev.Project)),
			Field("First Seen", firstSeen),
		),
		Section(pattern),
	}
	blocks = append(blocks, linkBlocks(ev.URL, "View Error Group in Sentry →")...)

	return Message{Blocks: blocks}
}

// formatStack renders trailing stack frames as a fenced code block.
// limit <= 0 keeps all frames; otherwise only the last limit frames are
// kept, in their original order.
func formatStack(frames []sentry.Frame, limit int) string {
	if len(frames) == 0 {
		return ""
	}
	if limit > 0 && len(frames) > limit {
		frames = frames[len(frames)-limit:]
	}

	var b strings.Builder
	b.WriteString("```")
	for i, f := range frames {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "at %s (%s:%d:%d)", orUnknown(f.Function), orUnknown(f.Filename), f.Lineno, f.Colno)
		if f.ContextLine != "" {
			b.WriteString("\n   " + f.ContextLine)
		}
	}
	b.WriteString("```")
	return b.String()
}

func userFields(u *sentry.User) []Block {
	if u == nil || (u.ID == "" && u.Email == "") {
		return nil
	}
	var fields []Text
	if u.ID != "" {
		fields = append(fields, Field("User ID", u.ID))
	}
	if u.Email != "" {
		fields = append(fields, Field("Email", u.Email))
	}
	return []Block{FieldSection(fields...)}
}

func linkBlocks(url, label string) []Block {
	if url == "" {
		return nil
	}
	return []Block{Section("<" + url + "|" + label + ">")}
}

func formatTags(tags sentry.Tags) string {
	if len(tags) == 0 {
		return noTags
	}
	lines := make([]string, 0, len(tags))
	for _, t := range tags {
		lines = append(lines, t.Key+": "+t.Value)
	}
	return strings.Join(lines, "\n")
}

func formatContext(c *sentry.ContextInfo) string {
	if c == nil {
		return placeholderNA
	}
	name := orUnknown(c.Name)
	if c.Version == "" {
		return name
	}
	return name + " " + c.Version
}

// formatBreadcrumbs renders the last breadcrumbLimit crumbs in
// chronological order, one per line.
func formatBreadcrumbs(crumbs sentry.BreadcrumbList) string {
	if len(crumbs) == 0 {
		return ""
	}
	if len(crumbs) > breadcrumbLimit {
		crumbs = crumbs[len(crumbs)-breadcrumbLimit:]
	}
	lines := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		when := placeholderNA
		if t, ok := c.Timestamp.Time(); ok {
			when = t.UTC().Format("15:04:05")
		}
		what := c.Message
		if what == "" {
			what = orUnknown(c.Type)
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", when, orUnknown(c.Category), what))
	}
	return strings.Join(lines, "\n")
}

// formatExtra renders the extra-data map sorted by key. Structured
// values are pretty-printed JSON, scalars are rendered as-is.
func formatExtra(extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch v := extra[k].(type) {
		case map[string]any, []any:
			pretty, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				fmt.Fprintf(&b, "%s: %v", k, v)
				continue
			}
			fmt.Fprintf(&b, "%s:\n```%s```", k, pretty)
		case nil:
			fmt.Fprintf(&b, "%s: %s", k, placeholderNA)
		default:
			fmt.Fprintf(&b, "%s: %v", k, v)
		}
	}
	return b.String()
}

func formatTimestamp(ts sentry.Timestamp) string {
	t, ok := ts.Time()
	if !ok {
		return placeholderNA
	}
	return formatTime(t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

func exceptionType(ev *sentry.Event) string {
	if exc := ev.PrimaryException(); exc != nil && exc.Type != "" {
		return exc.Type
	}
	return placeholderUnknown
}

func exceptionValue(ev *sentry.Event) string {
	if exc := ev.PrimaryException(); exc != nil && exc.Value != "" {
		return exc.Value
	}
	return placeholderNA
}

func orNA(s string) string {
	if s == "" {
		return placeholderNA
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return strings.ToLower(placeholderUnknown)
	}
	return s
}
