package content

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Clean removes terminal escape sequences and control characters from s,
// keeping newlines and tabs. Carriage returns are folded into newlines.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

func cleanLink(l Link) Link {
	return Link{URL: Clean(l.URL), Title: Clean(l.Title), Snippet: Clean(l.Snippet)}
}

func cleanWeather(w Weather) Weather {
	return Weather{
		Weather:     Clean(w.Weather),
		Temperature: Clean(w.Temperature),
		Humidity:    Clean(w.Humidity),
		Wind:        Clean(w.Wind),
		Location:    Clean(w.Location),
	}
}
