package normalization

import (
	"testing"
)

type mode string

const (
	modeFast mode = "fast"
	modeSafe mode = "safe"
)

func newModeNormalizer() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{
		"fast": modeFast,
		"SAFE": modeSafe,
	}, modeSafe)
}

func TestNormalize(t *testing.T) {
	n := newModeNormalizer()

	tests := []struct {
		name  string
		input string
		want  mode
	}{
		{"exact", "fast", modeFast},
		{"upper", "FAST", modeFast},
		{"padded", "  safe ", modeSafe},
		{"unknown falls back", "turbo", modeSafe},
		{"empty falls back", "", modeSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	n := newModeNormalizer()

	got, err := n.Parse(" Fast")
	if err != nil || got != modeFast {
		t.Fatalf("Parse(Fast) = %v, %v", got, err)
	}

	got, err = n.Parse("")
	if err != nil || got != modeSafe {
		t.Fatalf("Parse(\"\") = %v, %v", got, err)
	}

	if _, err := n.Parse("turbo"); err == nil {
		t.Fatal("expected error for unknown value")
	}
}

func TestKeysSortedAndCopied(t *testing.T) {
	n := newModeNormalizer()
	keys := n.Keys()
	if len(keys) != 2 || keys[0] != "fast" || keys[1] != "safe" {
		t.Fatalf("Keys() = %v", keys)
	}
	keys[0] = "mutated"
	if n.Keys()[0] != "fast" {
		t.Fatal("Keys() must return a copy")
	}
}
