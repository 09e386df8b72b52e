package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedCatalogHasRequiredKeys(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, key := range []string{
		"chat.move_prompt",
		"chat.general_prompt",
		"chat.fallback_help",
		"chat.button_title",
		"ui.stale",
		"ui.stale_action",
		"render.title",
	} {
		if !c.Has(key) {
			t.Fatalf("missing key %s", key)
		}
	}
}

func TestRenderButtonTitle(t *testing.T) {
	c := MustDefault()
	got, err := c.Render("chat.button_title", map[string]any{"Medal": "🥇", "SAN": "Qxa1+", "ShowScore": true, "Score": "5.5"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "🥇 Play Qxa1+ (Score: 5.5)" {
		t.Fatalf("unexpected title %q", got)
	}
	got, _ = c.Render("chat.button_title", map[string]any{"Medal": "🥉", "SAN": "a3", "ShowScore": false, "Score": "0.0"})
	if got != "🥉 Play a3" {
		t.Fatalf("unexpected title without score %q", got)
	}
}

func TestRenderMissingDataFails(t *testing.T) {
	c := MustDefault()
	if _, err := c.Render("chat.general_prompt", map[string]any{"Board": "x"}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if got := c.RenderOr("nope.key", nil, "fallback"); got != "fallback" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if !strings.HasPrefix(c.Text("ui.stale"), "This move suggestion is outdated.") {
		t.Fatalf("unexpected stale text %q", c.Text("ui.stale"))
	}
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("ui:\n  invalid: \"Nope!\"\n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New with override: %v", err)
	}
	if got := c.Text("ui.invalid"); got != "Nope!" {
		t.Fatalf("override not applied: %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("ui:\n  invalid: \"Again\"\n"), 0o644); err != nil {
		t.Fatalf("write second override: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected duplicate override key error")
	}
}

func TestBrokenTemplateRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("ui:\n  invalid: \"{{.Oops\"\n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected parse error")
	}
}
