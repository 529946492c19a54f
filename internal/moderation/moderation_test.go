package moderation

import (
	"strings"
	"testing"
)

func TestModerate_BlockedKeywordInName(t *testing.T) {
	v := Moderate(FileMeta{Name: "movie_PORN_x264.mkv", Size: 1 << 20, Mime: "video/x-matroska"})
	if v.Allowed {
		t.Fatalf("expected block, got %+v", v)
	}
	if !strings.Contains(v.Reason, "porn") {
		t.Fatalf("reason should name the keyword, got %q", v.Reason)
	}
}

func TestModerate_BlockedKeywordInCaption(t *testing.T) {
	v := Moderate(FileMeta{Name: "clean.mkv", Caption: "best XXX rip", Size: 1 << 20, Mime: "video/x-matroska"})
	if v.Allowed || !strings.Contains(v.Reason, "xxx") {
		t.Fatalf("expected xxx block, got %+v", v)
	}
}

func TestModerate_SuspiciousTinyBinary(t *testing.T) {
	v := Moderate(FileMeta{Name: "clean.mkv", Size: 500, Mime: "application/octet-stream"})
	if v.Allowed || v.Reason != "suspicious tiny binary" {
		t.Fatalf("expected tiny-binary block, got %+v", v)
	}
}

func TestModerate_TinyHeuristicBoundaries(t *testing.T) {
	// Zero size is not "tiny", and a known mime type is never tiny-blocked.
	cases := []FileMeta{
		{Name: "a.bin", Size: 0, Mime: "application/octet-stream"},
		{Name: "a.bin", Size: 1024, Mime: "application/octet-stream"},
		{Name: "a.srt", Size: 500, Mime: "text/plain"},
	}
	for i, meta := range cases {
		if v := Moderate(meta); !v.Allowed {
			t.Fatalf("case %d should be allowed, got %+v", i, v)
		}
	}
}

func TestModerate_AllowedFile(t *testing.T) {
	v := Moderate(FileMeta{Name: "clean.mkv", Size: 1_000_000, Mime: "video/x-matroska"})
	if !v.Allowed || v.Reason != "ok" {
		t.Fatalf("expected allow, got %+v", v)
	}
}

func TestModerate_Deterministic(t *testing.T) {
	meta := FileMeta{Name: "Matrix.1999.bluray.1080p.mkv", Caption: "The Matrix", Size: 2 << 30, Mime: "video/x-matroska"}
	first := Moderate(meta)
	for i := 0; i < 100; i++ {
		if got := Moderate(meta); got != first {
			t.Fatalf("verdict changed between calls: %+v vs %+v", first, got)
		}
	}
}
