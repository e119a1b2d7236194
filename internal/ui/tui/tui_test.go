package tui

import "testing"

func TestTruncateText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 8, "trunc..."},
		{"abc", 2, "ab"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateText(tt.text, tt.width); got != tt.want {
			t.Errorf("truncateText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path  string
		width int
		want  string
	}{
		{"a/b.txt", 10, "a/b.txt"},
		{"very/long/path/file.txt", 11, "...file.txt"},
		{"abcdef", 2, "ef"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.width); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.width, got, tt.want)
		}
	}
}
