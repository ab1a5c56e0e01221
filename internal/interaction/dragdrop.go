package interaction

import (
	"net/url"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
)

// DragEvent is a drag interaction over the upload zone
type DragEvent int

const (
	DragEnter DragEvent = iota
	DragOver
	DragLeave
	Drop
)

// DragDropAdapter tracks the upload zone highlight and feeds drops into the pipeline
type DragDropAdapter struct {
	pipeline    *UploadPipeline
	presenter   Presenter
	highlighted bool
}

// Handle processes ev. Every drag event is consumed, so the return is always true.
func (d *DragDropAdapter) Handle(ev DragEvent, files []Candidate) (bool, tea.Cmd) {
	switch ev {
	case DragEnter, DragOver:
		d.highlighted = true
	case DragLeave:
		d.highlighted = false
	case Drop:
		d.highlighted = false
		if len(files) > 0 {
			cmd, err := d.pipeline.SelectFile(files[0])
			if err != nil {
				logrus.WithError(err).Debug("DragDropAdapter: dropped file rejected")
			}
			return true, cmd
		}
	}
	return true, nil
}

// Highlighted reports whether the zone shows its drag-over state
func (d *DragDropAdapter) Highlighted() bool {
	return d.highlighted
}

// DropText handles pasted text the terminal produced for dragged files
func (d *DragDropAdapter) DropText(text string) (bool, tea.Cmd) {
	paths := ParseDroppedPaths(text)
	var files []Candidate
	for _, p := range paths {
		c, err := CandidateFromPath(p)
		if err != nil {
			logrus.WithError(err).WithField("path", p).Debug("DragDropAdapter: skipping unreadable drop")
			continue
		}
		files = append(files, c)
	}

	if len(paths) > 0 && len(files) == 0 {
		d.highlighted = false
		return true, d.presenter.Notify("Cannot read dropped file", messaging.MessageError)
	}
	return d.Handle(Drop, files)
}

// ParseDroppedPaths splits dropped text into file paths. Terminals quote or
// backslash-escape paths with spaces; some send file:// URLs.
func ParseDroppedPaths(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	words, err := shlex.Split(text)
	if err != nil {
		words = strings.Fields(text)
	}

	var paths []string
	for _, w := range words {
		if strings.HasPrefix(w, "file://") {
			if u, err := url.Parse(w); err == nil {
				w = u.Path
			}
		}
		if w != "" {
			paths = append(paths, w)
		}
	}
	return paths
}
