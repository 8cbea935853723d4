// Package content models reply payloads as a tagged union so the formatter
// never has to sniff shapes at render time.
package content

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the variant held by Raw.
type Kind int

const (
	KindText Kind = iota
	KindLinks
	KindWeather
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLinks:
		return "links"
	case KindWeather:
		return "weather"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Link is one search result.
type Link struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// Weather is a structured weather report. Optional fields are empty when absent.
type Weather struct {
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity,omitempty"`
	Wind        string `json:"wind,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Raw is a reply payload. The zero value is empty text.
type Raw struct {
	kind    Kind
	text    string
	links   []Link
	weather Weather
	opaque  any
}

// Text, Links and WeatherReport pass every string through Clean, so a Raw
// never carries terminal control sequences.
func Text(s string) Raw { return Raw{kind: KindText, text: Clean(s)} }

func Links(links ...Link) Raw {
	cleaned := make([]Link, 0, len(links))
	for _, l := range links {
		cleaned = append(cleaned, cleanLink(l))
	}
	return Raw{kind: KindLinks, links: cleaned}
}

func WeatherReport(w Weather) Raw { return Raw{kind: KindWeather, weather: cleanWeather(w)} }

// Opaque wraps a value the formatter passes through untouched. Its textual
// form is JSON, which escapes control characters.
func Opaque(v any) Raw { return Raw{kind: KindOpaque, opaque: v} }

func (r Raw) Kind() Kind { return r.kind }

// Text returns the text variant, or "" for any other kind.
func (r Raw) Text() string { return r.text }

func (r Raw) Links() []Link { return append([]Link(nil), r.links...) }

func (r Raw) Weather() Weather { return r.weather }

func (r Raw) Opaque() any { return r.opaque }

// IsEmpty reports whether the payload carries nothing to show.
func (r Raw) IsEmpty() bool {
	switch r.kind {
	case KindText:
		return r.text == ""
	case KindLinks:
		return len(r.links) == 0
	case KindOpaque:
		return r.opaque == nil
	default:
		return false
	}
}

// Equal compares two payloads structurally.
func (r Raw) Equal(o Raw) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case KindText:
		return r.text == o.text
	case KindLinks:
		if len(r.links) != len(o.links) {
			return false
		}
		for i := range r.links {
			if r.links[i] != o.links[i] {
				return false
			}
		}
		return true
	case KindWeather:
		return r.weather == o.weather
	default:
		a, errA := json.Marshal(r.opaque)
		b, errB := json.Marshal(o.opaque)
		return errA == nil && errB == nil && bytes.Equal(a, b)
	}
}

// PlainText is the canonical textual form of a payload, used wherever
// formatting is unavailable (typing reveal, logs, non-HTML output).
func (r Raw) PlainText() string {
	switch r.kind {
	case KindText:
		return r.text
	case KindLinks:
		var b strings.Builder
		for i, l := range r.links {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(l.Title)
			if l.URL != "" {
				b.WriteString(" - ")
				b.WriteString(l.URL)
			}
			if l.Snippet != "" {
				b.WriteString("\n  ")
				b.WriteString(l.Snippet)
			}
		}
		return b.String()
	case KindWeather:
		var lines []string
		for _, f := range r.weather.Fields() {
			lines = append(lines, f.Label+": "+f.Value)
		}
		return strings.Join(lines, "\n")
	default:
		data, err := json.Marshal(r.opaque)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Field is a labeled value of a weather card.
type Field struct {
	Label string
	Value string
}

// Fields lists the populated fields in display order.
func (w Weather) Fields() []Field {
	fields := []Field{
		{Label: "Weather", Value: w.Weather},
		{Label: "Temperature", Value: w.Temperature},
	}
	for _, f := range []Field{
		{Label: "Humidity", Value: w.Humidity},
		{Label: "Wind", Value: w.Wind},
		{Label: "Location", Value: w.Location},
	} {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Decode classifies a JSON payload. Dispatch order: link list, weather,
// string, everything else opaque. An empty array or null decodes to empty
// text so no link detection is attempted on it.
func Decode(data json.RawMessage) Raw {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Text("")
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Text(string(data))
	}
	return FromValue(v)
}

// FromValue classifies an already decoded JSON value.
func FromValue(v any) Raw {
	switch t := v.(type) {
	case nil:
		return Text("")
	case string:
		return Text(t)
	case []any:
		if len(t) == 0 {
			return Text("")
		}
		if first, ok := t[0].(map[string]any); ok && truthy(first["url"]) && truthy(first["title"]) {
			links := make([]Link, 0, len(t))
			for _, item := range t {
				m, _ := item.(map[string]any)
				links = append(links, Link{
					URL:     scalar(m["url"]),
					Title:   scalar(m["title"]),
					Snippet: scalar(m["snippet"]),
				})
			}
			return Links(links...)
		}
	case map[string]any:
		if truthy(t["weather"]) && truthy(t["temperature"]) {
			return WeatherReport(Weather{
				Weather:     scalar(t["weather"]),
				Temperature: scalar(t["temperature"]),
				Humidity:    truthyScalar(t["humidity"]),
				Wind:        truthyScalar(t["wind"]),
				Location:    truthyScalar(t["location"]),
			})
		}
	}
	return Opaque(v)
}

// truthy mirrors the loose presence check the backend payloads were designed
// around: missing, null, false, zero and "" all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func truthyScalar(v any) string {
	if !truthy(v) {
		return ""
	}
	return scalar(v)
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
