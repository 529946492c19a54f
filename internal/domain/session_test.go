package domain

import "testing"

func TestSessionStateRank_Monotonic(t *testing.T) {
	if !(StatePending.Rank() < StateProcessing.Rank() && StateProcessing.Rank() < StateDelivered.Rank()) {
		t.Fatalf("state ranks not ordered: %d %d %d",
			StatePending.Rank(), StateProcessing.Rank(), StateDelivered.Rank())
	}
	if SessionState("garbage").Rank() >= StatePending.Rank() {
		t.Fatalf("unknown state must rank below pending")
	}
}

func TestSessionSelection(t *testing.T) {
	s := &Session{MovieID: "m1", Source: "bluray", Quality: "1080p"}
	sel := s.Selection()
	if sel.MovieID != "m1" || sel.Source != "bluray" || sel.Quality != "1080p" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestMovieSourceList(t *testing.T) {
	m := &Movie{Sources: "webdl, bluray,,hdrip "}
	got := m.SourceList()
	want := []string{"webdl", "bluray", "hdrip"}
	if len(got) != len(want) {
		t.Fatalf("SourceList = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SourceList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if (&Movie{}).SourceList() != nil {
		t.Fatalf("empty sources should yield nil")
	}
}
