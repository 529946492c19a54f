package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseCallback_ValidCommands(t *testing.T) {
	cases := []struct {
		data string
		cmd  Command
		args []string
	}{
		{"mv_sel:m1:2", CmdSelect, []string{"m1", "2"}},
		{"mv_src:abc-123:webdl", CmdSource, []string{"abc-123", "webdl"}},
		{"mv_q:abc:1080p", CmdQuality, []string{"abc", "1080p"}},
		{"mv_go:abc", CmdDownload, []string{"abc"}},
		{"mv_pg:2:the matrix", CmdPage, []string{"2", "the matrix"}},
	}
	for _, tc := range cases {
		cmd, args, err := ParseCallback(tc.data)
		if err != nil {
			t.Fatalf("ParseCallback(%q): %v", tc.data, err)
		}
		if cmd != tc.cmd {
			t.Fatalf("ParseCallback(%q) cmd = %s, want %s", tc.data, cmd, tc.cmd)
		}
		if len(args) != len(tc.args) {
			t.Fatalf("ParseCallback(%q) args = %v, want %v", tc.data, args, tc.args)
		}
		for i := range args {
			if args[i] != tc.args[i] {
				t.Fatalf("ParseCallback(%q) args = %v, want %v", tc.data, args, tc.args)
			}
		}
	}
}

func TestParseCallback_Rejections(t *testing.T) {
	bad := []string{
		"",                                  // empty
		"mv_sel:<script>",                   // alphabet violation
		"mv_sel:" + strings.Repeat("a", 130), // too long
		"mv_nope:x",                         // unknown prefix
		"drop table;--",                     // garbage
	}
	for _, data := range bad {
		if _, _, err := ParseCallback(data); err == nil {
			t.Fatalf("ParseCallback(%q) should fail", data)
		} else {
			var e ErrBadCallback
			if !errors.As(err, &e) {
				t.Fatalf("ParseCallback(%q) error type %T", data, err)
			}
		}
	}
}

func TestCallbackData_RoundTrips(t *testing.T) {
	data := CallbackData(CmdSource, "sess-1", "bluray")
	cmd, args, err := ParseCallback(data)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if cmd != CmdSource || args[0] != "sess-1" || args[1] != "bluray" {
		t.Fatalf("round trip mismatch: cmd=%s args=%v", cmd, args)
	}
}

func TestNewRouter_RequiresFullTable(t *testing.T) {
	noop := func(ctx context.Context, cb Callback) error { return nil }

	if _, err := NewRouter(map[Command]HandlerFunc{
		CmdSelect: noop, CmdSource: noop, CmdQuality: noop, CmdDownload: noop,
		// CmdPage deliberately missing
	}); err == nil {
		t.Fatalf("router with a missing handler must fail construction")
	}

	full := map[Command]HandlerFunc{
		CmdSelect: noop, CmdSource: noop, CmdQuality: noop, CmdDownload: noop, CmdPage: noop,
	}
	if _, err := NewRouter(full); err != nil {
		t.Fatalf("full table rejected: %v", err)
	}
}

func TestRouter_DispatchPopulatesCommandAndArgs(t *testing.T) {
	var got Callback
	capture := func(ctx context.Context, cb Callback) error {
		got = cb
		return nil
	}
	noop := func(ctx context.Context, cb Callback) error { return nil }

	r, err := NewRouter(map[Command]HandlerFunc{
		CmdSelect: capture, CmdSource: noop, CmdQuality: noop, CmdDownload: noop, CmdPage: noop,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	err = r.Dispatch(context.Background(), "mv_sel:m9:3", Callback{UserID: 7, ChatID: 8})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got.Cmd != CmdSelect || got.UserID != 7 || got.ChatID != 8 {
		t.Fatalf("context lost: %+v", got)
	}
	if len(got.Args) != 2 || got.Args[0] != "m9" || got.Args[1] != "3" {
		t.Fatalf("args = %v", got.Args)
	}
}
