package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/clipfeed/clipfeed/internal/model"
	"github.com/clipfeed/clipfeed/internal/repository"
)

const (
	MaxDescriptionLength = 2000
	MaxCommentLength     = 500
	MaxUsernameLength    = 50
)

// EngagementTracker deduplicates views and likes per client and throttles comments.
type EngagementTracker interface {
	RecordViewIfNew(client, videoID string) bool
	ToggleLike(client, videoID string) (liked bool, delta int)
	CanComment(client string) bool
}

type UploadInput struct {
	File        io.Reader
	Filename    string
	Size        int64
	Description string
	Hashtags    string
	Author      string
}

type FeedStats struct {
	Videos   int `json:"videos"`
	Comments int `json:"comments"`
	Views    int `json:"views"`
	Likes    int `json:"likes"`
}

// FeedService owns the in-memory video list. Every mutation holds mu from
// the lookup until the document has been written.
type FeedService struct {
	mu      sync.Mutex
	videos  []*model.Video
	store   repository.VideoStore
	media   *MediaService
	tracker EngagementTracker
	now     func() time.Time
	newID   func() string
}

func NewFeedService(store repository.VideoStore, media *MediaService, tracker EngagementTracker) (*FeedService, error) {
	videos, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	slog.Info("feed loaded", "videos", len(videos))

	return &FeedService{
		videos:  videos,
		store:   store,
		media:   media,
		tracker: tracker,
		now:     time.Now,
		newID:   newTimeID,
	}, nil
}

func newTimeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (s *FeedService) Upload(ctx context.Context, in UploadInput) (*model.Video, error) {
	if in.File == nil {
		return nil, ErrMissingFile
	}

	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, MaxDescriptionLength)
	}
	author := strings.TrimSpace(in.Author)
	if utf8.RuneCountInString(author) > MaxUsernameLength {
		return nil, fmt.Errorf("%w: author must be at most %d characters", ErrValidation, MaxUsernameLength)
	}

	filename, err := s.media.Store(ctx, in.File, in.Filename, in.Size)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	video := &model.Video{
		ID:          s.newID(),
		Filename:    filename,
		Author:      author,
		Description: description,
		Hashtags:    NormalizeHashtags(in.Hashtags),
		Comments:    []model.Comment{},
		CreatedAt:   s.now().UTC(),
	}
	s.videos = append([]*model.Video{video}, s.videos...)

	err = s.persist()
	if err != nil {
		return nil, err
	}

	slog.Info("video uploaded", "id", video.ID, "filename", filename, "hashtags", len(video.Hashtags))
	return video.Clone(), nil
}

// ListFeed returns every video, newest first. empty reports that the
// store holds no videos at all.
func (s *FeedService) ListFeed() (videos []*model.Video, empty bool) {
	s.mu.Lock()
	videos = make([]*model.Video, 0, len(s.videos))
	for _, v := range s.videos {
		videos = append(videos, v.Clone())
	}
	s.mu.Unlock()

	slices.SortStableFunc(videos, func(a, b *model.Video) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return videos, len(videos) == 0
}

func (s *FeedService) GetVideo(id string) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.find(id)
	if v == nil {
		return nil, ErrNotFound
	}
	return v.Clone(), nil
}

// RecordView counts a view once per client and video. counted is false
// when the client already viewed the video.
func (s *FeedService) RecordView(client, id string) (counted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.find(id)
	if v == nil {
		return false, ErrNotFound
	}
	if !s.tracker.RecordViewIfNew(client, id) {
		return false, nil
	}

	v.Views++
	return true, s.persist()
}

func (s *FeedService) AddComment(client, id, text, username string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracker.CanComment(client) {
		return nil, ErrRateLimited
	}

	v := s.find(id)
	if v == nil {
		return nil, ErrNotFound
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, fmt.Errorf("%w: comment must be at most %d characters", ErrValidation, MaxCommentLength)
	}
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, fmt.Errorf("%w: username must be at most %d characters", ErrValidation, MaxUsernameLength)
	}

	comment := model.Comment{
		ID:        s.newID(),
		Username:  username,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	v.Comments = append(v.Comments, comment)

	err := s.persist()
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *FeedService) ToggleLike(client, id string) (liked bool, likes int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.find(id)
	if v == nil {
		return false, 0, ErrNotFound
	}

	liked, delta := s.tracker.ToggleLike(client, id)
	v.Likes = max(v.Likes+delta, 0)

	return liked, v.Likes, s.persist()
}

func (s *FeedService) Stats() FeedStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := FeedStats{Videos: len(s.videos)}
	for _, v := range s.videos {
		stats.Comments += len(v.Comments)
		stats.Views += v.Views
		stats.Likes += v.Likes
	}
	return stats
}

func (s *FeedService) find(id string) *model.Video {
	for _, v := range s.videos {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// persist writes the current list. The in-memory state is kept on failure,
// so readers may see a change that is not on disk yet.
func (s *FeedService) persist() error {
	err := s.store.Save(s.videos)
	if err != nil {
		slog.Error("failed to persist videos", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}
