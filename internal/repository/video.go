package repository

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/clipfeed/clipfeed/internal/model"
)

// VideoStore persists the full video sequence as one document.
type VideoStore interface {
	// Load returns the stored videos. A missing or unparsable document is
	// reset to an empty sequence rather than treated as fatal.
	Load() ([]*model.Video, error)
	// Save replaces the stored document with videos.
	Save(videos []*model.Video) error
}

type videoStore struct {
	doc jsonDocument[*model.Video]
}

func NewVideoStore(path string) VideoStore {
	return &videoStore{doc: jsonDocument[*model.Video]{path: path}}
}

func (s *videoStore) Load() ([]*model.Video, error) {
	videos, err := s.doc.read()
	if err == nil {
		for _, v := range videos {
			normalizeVideo(v)
		}
		return compact(videos), nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("video store not found, initializing empty store", "path", s.doc.path)
	} else {
		slog.Warn("video store unreadable, resetting to empty", "path", s.doc.path, "error", err)
		moved, mvErr := s.doc.quarantine()
		if mvErr != nil {
			slog.Warn("failed to move unreadable video store aside", "path", s.doc.path, "error", mvErr)
		} else {
			slog.Info("unreadable video store kept for inspection", "path", moved)
		}
	}

	// The next successful Save creates the document, so a failed reset
	// only means the feed starts empty without a file behind it yet.
	err = s.doc.write([]*model.Video{})
	if err != nil {
		slog.Warn("failed to initialize video store", "path", s.doc.path, "error", err)
	}
	return []*model.Video{}, nil
}

func (s *videoStore) Save(videos []*model.Video) error {
	return s.doc.write(videos)
}

func normalizeVideo(v *model.Video) {
	if v == nil {
		return
	}
	if v.Hashtags == nil {
		v.Hashtags = []string{}
	}
	if v.Comments == nil {
		v.Comments = []model.Comment{}
	}
}

// compact drops null entries a hand-edited document may contain.
func compact(videos []*model.Video) []*model.Video {
	out := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
