package sandbox

import "testing"

func Test_resolvePresetToggles_AllExpandsToDefaultSet(t *testing.T) {
	t.Parallel()

	enabled, err := resolvePresetToggles(nil)
	if err != nil {
		t.Fatalf("resolvePresetToggles: %v", err)
	}

	for _, name := range []string{"@base", "@caches", "@agents", "@git", "@lint/go", "@lint/ts", "@lint/python"} {
		if !enabled[name] {
			t.Errorf("expected %s enabled under default @all expansion", name)
		}
	}
}

func Test_resolvePresetToggles_NegationIsLastWriteWins(t *testing.T) {
	t.Parallel()

	enabled, err := resolvePresetToggles([]string{"@all", "!@caches"})
	if err != nil {
		t.Fatalf("resolvePresetToggles: %v", err)
	}

	if enabled["@caches"] {
		t.Fatal("expected @caches disabled after explicit negation")
	}
	if !enabled["@base"] {
		t.Fatal("expected @base to remain enabled")
	}
}

func Test_resolvePresetToggles_UnknownPresetErrors(t *testing.T) {
	t.Parallel()

	if _, err := resolvePresetToggles([]string{"@nonexistent"}); err == nil {
		t.Fatal("expected an error for an unknown preset name")
	}
}

func Test_expandPresets_EmptySliceMeansNoPresets(t *testing.T) {
	t.Parallel()

	entries, err := expandPresets([]string{}, BuildEnv{HomeDir: "/home/u"})
	if err != nil {
		t.Fatalf("expandPresets: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries for an explicit empty preset list, got %v", entries)
	}
}
