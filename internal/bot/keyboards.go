package bot

import (
	"fmt"
	"strconv"

	"github.com/filmrelay/go-movie-backend/internal/domain"
	"github.com/filmrelay/go-movie-backend/internal/search"
	"github.com/filmrelay/go-movie-backend/internal/services"
	"github.com/filmrelay/go-movie-backend/internal/tg"
	"github.com/filmrelay/go-movie-backend/internal/utils"
)

// defaultSources is offered when a catalog row carries no source list.
var defaultSources = []string{"webdl", "bluray", "hdrip"}

// qualities is the fixed quality ladder.
var qualities = []string{"360p", "480p", "720p", "1080p", "2160p"}

// sourceLabels maps wire values to button labels.
var sourceLabels = map[string]string{
	"webdl":  "WEB-DL",
	"bluray": "BLURAY",
	"hdrip":  "HDRip",
}

// resultsKeyboard renders one page of search results: one button per
// movie plus prev/next navigation when applicable. A full page implies
// there may be more results, so it gets a Next button.
func resultsKeyboard(results []search.Result, query string, page, pageSize int) tg.InlineKeyboardMarkup {
	rows := make([][]tg.InlineKeyboardButton, 0, len(results)+1)
	for _, r := range results {
		label := r.Entry.Title
		if r.Entry.Year > 0 {
			label = fmt.Sprintf("%s (%d)", r.Entry.Title, r.Entry.Year)
		}
		rows = append(rows, []tg.InlineKeyboardButton{{
			Text:         label,
			CallbackData: CallbackData(CmdSelect, r.Entry.ID, strconv.Itoa(page)),
		}})
	}

	var nav []tg.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tg.InlineKeyboardButton{
			Text:         "« Prev",
			CallbackData: CallbackData(CmdPage, strconv.Itoa(page-1), query),
		})
	}
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	if len(results) == pageSize {
		nav = append(nav, tg.InlineKeyboardButton{
			Text:         "Next »",
			CallbackData: CallbackData(CmdPage, strconv.Itoa(page+1), query),
		})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return tg.NewInlineKeyboardMarkup(rows)
}

// sourceKeyboard offers the movie's available sources, one per row.
func sourceKeyboard(sessionID string, sources []string) tg.InlineKeyboardMarkup {
	if len(sources) == 0 {
		sources = defaultSources
	}
	rows := make([][]tg.InlineKeyboardButton, 0, len(sources))
	for _, s := range sources {
		label := sourceLabels[s]
		if label == "" {
			label = s
		}
		rows = append(rows, []tg.InlineKeyboardButton{{
			Text:         label,
			CallbackData: CallbackData(CmdSource, sessionID, s),
		}})
	}
	return tg.NewInlineKeyboardMarkup(rows)
}

// qualityKeyboard offers the quality ladder in one row.
func qualityKeyboard(sessionID string) tg.InlineKeyboardMarkup {
	row := make([]tg.InlineKeyboardButton, 0, len(qualities))
	for _, q := range qualities {
		row = append(row, tg.InlineKeyboardButton{
			Text:         q,
			CallbackData: CallbackData(CmdQuality, sessionID, q),
		})
	}
	return tg.NewInlineKeyboardMarkup([][]tg.InlineKeyboardButton{row})
}

// downloadKeyboard is the single download button on the review message.
func downloadKeyboard(sessionID string) tg.InlineKeyboardMarkup {
	return tg.NewInlineKeyboardMarkup([][]tg.InlineKeyboardButton{{
		{Text: "⬇ Download", CallbackData: CallbackData(CmdDownload, sessionID)},
	}})
}

// reviewText summarizes the completed selection before download.
func reviewText(s *domain.Session) string {
	source := sourceLabels[s.Source]
	if source == "" {
		source = s.Source
	}
	return fmt.Sprintf("%s\nSource: %s\nQuality: %s\n\nReady to download.", s.Title, source, s.Quality)
}

// pageArg parses an integer page argument, defaulting to 1.
func pageArg(args []string, idx int) int {
	if idx >= len(args) {
		return 1
	}
	p := utils.AtoiDefault(args[idx], 1)
	if p < 1 {
		return 1
	}
	return p
}
