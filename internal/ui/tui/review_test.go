package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/tree"
)

func sampleResults() []tree.Result {
	return []tree.Result{
		{Path: "ok.txt", Differ: "text", Status: tree.StatusMatch},
		{
			Path:   "changed.txt",
			Differ: "text",
			Status: tree.StatusMismatch,
			Err:    &differ.MismatchError{Kind: differ.KindText, Diff: "--- old\n+++ new\n@@ -1 +1 @@\n-a\n+b\n"},
		},
		{
			Path:   "new/file.bin",
			Differ: "binary",
			Status: tree.StatusMissing,
			Err:    &differ.MismatchError{Kind: differ.KindSize, Missing: true, NewSize: 3},
		},
		{Path: "broken.txt", Differ: "text", Status: tree.StatusError, Err: errors.New("permission denied")},
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestReviewModel_SkipsMatches(t *testing.T) {
	m := NewReviewModel(sampleResults())
	if len(m.results) != 3 {
		t.Fatalf("expected 3 pending results, got %d", len(m.results))
	}
	for _, r := range m.results {
		if r.Status == tree.StatusMatch {
			t.Errorf("matching result %s should be hidden", r.Path)
		}
	}
	rows := m.rows()
	if rows[0][2] != "Mismatch" || rows[1][2] != "Missing" {
		t.Errorf("unexpected status labels: %v, %v", rows[0], rows[1])
	}
}

func TestReviewModel_AcceptAndApply(t *testing.T) {
	m := NewReviewModel(sampleResults())

	next, _ := m.Update(runeKey('a'))
	m = next.(ReviewModel)
	if !m.accepted["changed.txt"] {
		t.Fatal("expected changed.txt to be accepted")
	}
	if m.rows()[0][0] != "✓" {
		t.Errorf("expected accept mark, got %q", m.rows()[0][0])
	}

	// Toggle off and on again
	next, _ = m.Update(runeKey('a'))
	m = next.(ReviewModel)
	if m.accepted["changed.txt"] {
		t.Fatal("expected second toggle to un-accept")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(ReviewModel)

	next, cmd := m.Update(runeKey('w'))
	m = next.(ReviewModel)
	if cmd == nil {
		t.Error("expected quit command after apply")
	}
	res := m.Result()
	if res.Action != ReviewActionApply {
		t.Errorf("expected ReviewActionApply, got %v", res.Action)
	}
	if len(res.Accepted) != 1 || res.Accepted[0] != "changed.txt" {
		t.Errorf("unexpected accepted paths: %v", res.Accepted)
	}
}

func TestReviewModel_AcceptAll(t *testing.T) {
	m := NewReviewModel(sampleResults())
	next, _ := m.Update(runeKey('A'))
	next, _ = next.(ReviewModel).Update(runeKey('w'))
	res := next.(ReviewModel).Result()

	want := []string{"changed.txt", "new/file.bin", "broken.txt"}
	if strings.Join(res.Accepted, ",") != strings.Join(want, ",") {
		t.Errorf("Accepted = %v, want %v", res.Accepted, want)
	}
}

func TestReviewModel_QuitDiscards(t *testing.T) {
	m := NewReviewModel(sampleResults())
	next, _ := m.Update(runeKey('A'))
	next, cmd := next.(ReviewModel).Update(runeKey('q'))
	m = next.(ReviewModel)

	if cmd == nil {
		t.Error("expected quit command")
	}
	if m.Result().Action != ReviewActionNone {
		t.Errorf("quit should not apply, got %v", m.Result().Action)
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestReviewModel_ViewDiff(t *testing.T) {
	m := NewReviewModel(sampleResults())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	next, _ = next.(ReviewModel).Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ReviewModel)

	if !m.viewingDiff {
		t.Fatal("expected diff view after enter")
	}
	view := m.View()
	if !strings.Contains(view, "changed.txt") || !strings.Contains(view, "+b") {
		t.Errorf("diff view missing content:\n%s", view)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(ReviewModel)
	if m.viewingDiff {
		t.Error("expected esc to return to the list")
	}
	if !strings.Contains(m.View(), "Review Golden Files") {
		t.Error("expected list view title")
	}
}

func TestReviewModel_BuildDiffContent(t *testing.T) {
	m := NewReviewModel(nil)
	missing := sampleResults()[2]
	content := m.buildDiffContent(missing)
	if !strings.Contains(content, "No golden file yet") {
		t.Errorf("expected missing notice, got %q", content)
	}
	if !strings.Contains(content, "file sizes differ") {
		t.Errorf("expected mismatch message, got %q", content)
	}

	broken := sampleResults()[3]
	if content := m.buildDiffContent(broken); !strings.Contains(content, "permission denied") {
		t.Errorf("expected error text, got %q", content)
	}
}

func TestReviewModel_EmptyView(t *testing.T) {
	m := NewReviewModel([]tree.Result{{Path: "a.txt", Status: tree.StatusMatch}})
	if !strings.Contains(m.View(), "All golden files match") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}
