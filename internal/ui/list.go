package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/mattn/go-runewidth"
)

const maxTitleWidth = 64

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track   models.Track
	playing bool
	liked   bool
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string {
	prefix := "  "
	if i.playing {
		prefix = "▶ "
	}
	title := runewidth.Truncate(i.track.Title, maxTitleWidth, "…")
	if i.liked {
		title += " ♥"
	}
	return prefix + title
}
func (i trackItem) Description() string {
	return "  " + runewidth.Truncate(i.track.Author, maxTitleWidth, "…")
}

// trackItems builds list items for tracks. current marks the playing index, or pass -1.
func trackItems(tracks []models.Track, current int, liked func(string) bool) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, playing: i == current, liked: liked(t.ID)}
	}
	return items
}

func newTrackList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}
