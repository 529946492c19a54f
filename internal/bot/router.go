// Package bot implements the Telegram interaction layer: the callback
// command router and the handlers driving the search → select → choose →
// deliver flow.
//
// Callback data uses a compact "<prefix>:<arg>:<arg>" wire format. Routing
// is an explicit dispatch table over a typed command enum; the table is
// validated at construction, so a command without a handler is a startup
// error, not a silent dead button.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/filmrelay/go-movie-backend/internal/tg"
)

// Command identifies one callback action.
type Command int

const (
	CmdSelect   Command = iota + 1 // user picked a movie from results
	CmdSource                      // user picked a source
	CmdQuality                     // user picked a quality
	CmdDownload                    // user pressed the download button
	CmdPage                        // user paged through results
)

// String returns the command's wire prefix.
func (c Command) String() string {
	switch c {
	case CmdSelect:
		return "mv_sel"
	case CmdSource:
		return "mv_src"
	case CmdQuality:
		return "mv_q"
	case CmdDownload:
		return "mv_go"
	case CmdPage:
		return "mv_pg"
	default:
		return "unknown"
	}
}

// allCommands is the exhaustive command set the router must cover.
var allCommands = []Command{CmdSelect, CmdSource, CmdQuality, CmdDownload, CmdPage}

var prefixToCommand = map[string]Command{
	"mv_sel": CmdSelect,
	"mv_src": CmdSource,
	"mv_q":   CmdQuality,
	"mv_go":  CmdDownload,
	"mv_pg":  CmdPage,
}

// Callback is one parsed callback press.
type Callback struct {
	Cmd  Command
	Args []string

	// Telegram context for the reply.
	QueryID   string
	UserID    int64
	ChatID    int64
	MessageID int
}

// callbackDataRE is the full allowed shape of raw callback data. Telegram
// callers control this string, so anything outside the alphabet is
// rejected before parsing.
var callbackDataRE = regexp.MustCompile(`^[a-zA-Z0-9_\-:|. ]{1,128}$`)

// ErrBadCallback rejects malformed or unknown callback data.
type ErrBadCallback struct{ Data string }

func (e ErrBadCallback) Error() string { return fmt.Sprintf("bad callback data %q", e.Data) }

// ParseCallback validates and splits raw callback data.
func ParseCallback(data string) (Command, []string, error) {
	if !callbackDataRE.MatchString(data) {
		return 0, nil, ErrBadCallback{Data: data}
	}
	parts := strings.Split(data, ":")
	cmd, ok := prefixToCommand[parts[0]]
	if !ok {
		return 0, nil, ErrBadCallback{Data: data}
	}
	return cmd, parts[1:], nil
}

// HandlerFunc handles one parsed callback.
type HandlerFunc func(ctx context.Context, cb Callback) error

// Router dispatches parsed callbacks to handlers.
type Router struct {
	handlers map[Command]HandlerFunc
}

// NewRouter builds a router and verifies the table covers every command.
func NewRouter(handlers map[Command]HandlerFunc) (*Router, error) {
	for _, c := range allCommands {
		if handlers[c] == nil {
			return nil, fmt.Errorf("bot: no handler registered for command %s", c)
		}
	}
	return &Router{handlers: handlers}, nil
}

// Dispatch parses the raw callback data and invokes the mapped handler.
func (r *Router) Dispatch(ctx context.Context, data string, cb Callback) error {
	cmd, args, err := ParseCallback(data)
	if err != nil {
		return err
	}
	cb.Cmd = cmd
	cb.Args = args
	return r.handlers[cmd](ctx, cb)
}

// CallbackData assembles the wire string for a command and its args.
func CallbackData(cmd Command, args ...string) string {
	if len(args) == 0 {
		return cmd.String()
	}
	return cmd.String() + ":" + strings.Join(args, ":")
}

// callbackFromQuery extracts reply context from a Telegram callback query.
func callbackFromQuery(q *tg.CallbackQuery) Callback {
	cb := Callback{QueryID: q.ID, UserID: q.From.ID}
	if q.Message != nil {
		cb.ChatID = q.Message.Chat.ID
		cb.MessageID = q.Message.MessageID
	}
	return cb
}
