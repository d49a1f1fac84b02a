package domain

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendFragmentFirstFragment(t *testing.T) {
	got := AppendFragment("", "Erstes Gespräch mit Frau Berger.")
	if got != "Erstes Gespräch mit Frau Berger." {
		t.Fatalf("expected bare fragment, got %q", got)
	}
}

func TestAppendFragmentKeepsOrder(t *testing.T) {
	archive := ""
	for i := 1; i <= 5; i++ {
		archive = AppendFragment(archive, fmt.Sprintf("Fragment %d", i))
	}

	fragments := ArchiveFragments(archive)
	if len(fragments) != 5 {
		t.Fatalf("expected 5 fragments, got %d", len(fragments))
	}
	for i, f := range fragments {
		want := fmt.Sprintf("Fragment %d", i+1)
		if f != want {
			t.Fatalf("fragment %d: expected %q, got %q", i, want, f)
		}
	}
}

func TestAppendFragmentNeverTruncates(t *testing.T) {
	archive := AppendFragment("", "Alte Notiz")
	next := AppendFragment(archive, "Neue Notiz")

	if !strings.HasPrefix(next, archive) {
		t.Fatalf("expected prior archive preserved as prefix, got %q", next)
	}
}

func TestAppendFragmentIgnoresEmpty(t *testing.T) {
	archive := AppendFragment("Bestand", "   ")
	if archive != "Bestand" {
		t.Fatalf("expected archive unchanged, got %q", archive)
	}
}

func TestArchiveFragmentsEmpty(t *testing.T) {
	if got := ArchiveFragments("  "); got != nil {
		t.Fatalf("expected nil for empty archive, got %v", got)
	}
}
