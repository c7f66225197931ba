package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation removed", "Hello, World! Conf", "hello-world-conf"},
		{"digits kept", "Tech Meetup 2024", "tech-meetup-2024"},
		{"underscores and hyphens collapse", "Go__Day -- Berlin", "go-day-berlin"},
		{"leading and trailing separators trimmed", "  --React Summit--  ", "react-summit"},
		{"tabs and newlines", "AI\tand\nML", "ai-and-ml"},
		{"no-break space", "Tech\u00a0Meetup", "tech-meetup"},
		{"em space", "a\u2003b", "a-b"},
		{"vertical tab", "Go\vDay", "go-day"},
		{"ideographic space and bom", "\ufeffRust\u3000Night\u202f", "rust-night"},
		{"only punctuation", "!!!", ""},
		{"non ascii dropped", "Café Zürich", "caf-zrich"},
		{"already a slug", "hello-world-conf", "hello-world-conf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GenerateSlug(tt.title))
		})
	}
}

func TestGenerateSlug_Idempotent(t *testing.T) {
	titles := []string{
		"Hello, World! Conf",
		"  Next.js  Conf _ 2025 ",
		"Rust & WebAssembly: Live!",
		"---",
		"DevOps_Days-Amsterdam",
	}
	for _, title := range titles {
		once := GenerateSlug(title)
		require.Equal(t, once, GenerateSlug(once), "title %q", title)
	}
}

func TestNormalizeDate(t *testing.T) {
	require.Equal(t, "2025-03-14", NormalizeDate("  2025-03-14 "))
	require.Equal(t, "13/01/2024", NormalizeDate("13/01/2024"))
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hh:mm kept", "09:30", "09:30"},
		{"single digit hour kept", "9:30", "9:30"},
		{"hh:mm:ss kept", "18:05:59", "18:05:59"},
		{"trimmed", "  10:00 ", "10:00"},
		{"fractional seconds", "09:30:15.250", "09:30"},
		{"utc suffix", "14:45Z", "14:45"},
		{"offset suffix", "14:45+02:00", "14:45"},
		{"twelve hour lower case", "7:45 pm", "19:45"},
		{"twelve hour compact", "7:45PM", "19:45"},
		{"hour only", "7PM", "19:00"},
		{"midnight", "12 am", "00:00"},
		{"out of range kept", "25:00", "25:00"},
		{"free text kept", "after lunch", "after lunch"},
		{"free text trimmed", "  TBD  ", "TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeTime(tt.input))
		})
	}
}
