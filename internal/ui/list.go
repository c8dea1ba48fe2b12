package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mixtape/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string {
	if i.track.Protected {
		return fmt.Sprintf("%s ♪", i.track.Name)
	}
	return i.track.Name
}
func (i trackItem) Description() string {
	desc := i.track.Artist()
	if i.track.Reasoning != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Reasoning)
	}
	return desc
}
