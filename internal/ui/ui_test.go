package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	Table(&buf, []string{"NAME", "X"}, [][]string{
		{"Acme", "10.0"},
		{"Foo Industries", "2.5"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "  NAME            X" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "  Acme            10.0" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"NAME"}, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestNotifier(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	Notifier{W: &buf}.Notify(`No entity named "Nope"`)
	if !strings.Contains(buf.String(), `No entity named "Nope"`) {
		t.Errorf("unexpected notice %q", buf.String())
	}
}

func TestBanner(t *testing.T) {
	SetColor(false)
	var buf bytes.Buffer
	Banner(&buf, "layout")
	if !strings.Contains(buf.String(), "relmap: layout") {
		t.Errorf("unexpected banner %q", buf.String())
	}
}
