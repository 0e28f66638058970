package cacheid

import "testing"

type pair struct{ a, b string }

func (p pair) UIDFields() []string { return []string{p.a, p.b} }

func TestGenerateStripsSpaces(t *testing.T) {
	got := Generate("你好", "ni3 hao3")
	if got != "你好ni3hao3" {
		t.Fatalf("expected 你好ni3hao3, got %q", got)
	}
	if Generate("你 好", "ni3 hao3") != Generate("你好", "ni3hao3") {
		t.Fatalf("expected space-insensitive keys to match")
	}
}

func TestGenerateDistinctPairs(t *testing.T) {
	fixtures := []pair{
		{"你好", "ni3 hao3"},
		{"好", "hao3"},
		{"好", "hao4"},
		{"中国", "Zhong1 guo2"},
		{"行", "xing2"},
		{"行", "hang2"},
	}
	seen := map[string]pair{}
	for _, p := range fixtures {
		id := For(p)
		if prev, ok := seen[id]; ok {
			t.Fatalf("collision between %v and %v on %q", prev, p, id)
		}
		seen[id] = p
	}
}

func TestGenerateEmpty(t *testing.T) {
	if got := Generate(); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
	if got := Generate(" ", "  "); got != "" {
		t.Fatalf("expected spaces-only fields to vanish, got %q", got)
	}
}
