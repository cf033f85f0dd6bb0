package tempfile

import (
	"strings"
	"testing"
)

func fixedNow() (int64, int64) { return 1_700_000_000, 42 }

func TestPrefix_HasExpectedShapeAndFields(t *testing.T) {
	got := Prefix(fixedNow)
	if !strings.HasPrefix(got, "penguin_judge_tempfile_") {
		t.Fatalf("want penguin_judge_tempfile_ prefix, got %q", got)
	}
	if !strings.Contains(got, "1700000000") || !strings.Contains(got, "42") {
		t.Fatalf("want wall-clock secs/nanos embedded, got %q", got)
	}

	parts := strings.Split(strings.TrimPrefix(got, "penguin_judge_tempfile_"), "_")
	if len(parts) != 3 {
		t.Fatalf("want 3 underscore-separated fields after the prefix (time, pid, identity), got %d: %q", len(parts), got)
	}
	if parts[1] == "" {
		t.Fatalf("want a non-empty pid field, got %q", got)
	}
	if parts[2] == "" {
		t.Fatalf("want a non-empty identity field, got %q", got)
	}
}

func TestPrefix_DiffersAcrossCalls(t *testing.T) {
	a := Prefix(fixedNow)
	b := Prefix(fixedNow)
	if a == b {
		t.Fatalf("want distinct prefixes even with the same wall-clock reading (identity entropy must differ), got %q twice", a)
	}
}
