package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/clipfeed/clipfeed/internal/ctxkeys"
	"github.com/clipfeed/clipfeed/internal/model"
	"github.com/clipfeed/clipfeed/internal/service"
	"github.com/clipfeed/clipfeed/internal/validation"
)

const (
	// multipartMemory is kept in memory while parsing; larger files spill to disk.
	multipartMemory = 32 << 20
	// formOverhead covers multipart framing and text fields on top of the file.
	formOverhead = 1 << 20
	maxJSONBody  = 64 << 10
)

type FeedHandler struct {
	feedService *service.FeedService
	maxUpload   int64
}

func NewFeedHandler(feedService *service.FeedService, maxUpload int64) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		maxUpload:   maxUpload,
	}
}

type uploadResponse struct {
	OK      bool         `json:"ok"`
	Success bool         `json:"success"`
	Video   *model.Video `json:"video"`
}

type feedResponse struct {
	Videos []*model.Video `json:"videos"`
	Empty  bool           `json:"empty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type commentRequest struct {
	Text     string `json:"text"`
	Username string `json:"username,omitempty" validate:"max=50"`
}

type commentResponse struct {
	OK      bool           `json:"ok"`
	Success bool           `json:"success"`
	Comment *model.Comment `json:"comment"`
}

type likeResponse struct {
	OK    bool `json:"ok"`
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

func (h *FeedHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		limit := h.maxUpload + formOverhead
		if r.ContentLength > limit {
			writeServiceError(w, r, h.tooLarge())
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeServiceError(w, r, h.tooLarge())
		case errors.Is(err, http.ErrNotMultipart):
			writeServiceError(w, r, service.ErrMissingFile)
		default:
			WriteError(w, http.StatusBadRequest, CodeValidation, "invalid multipart form")
		}
		return
	}
	defer func() {
		err := r.MultipartForm.RemoveAll()
		if err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeServiceError(w, r, service.ErrMissingFile)
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	author := r.FormValue("author")
	if user := ctxkeys.User(r.Context()); user != nil {
		author = user.Username
	}

	video, err := h.feedService.Upload(r.Context(), service.UploadInput{
		File:        file,
		Filename:    header.Filename,
		Size:        header.Size,
		Description: r.FormValue("description"),
		Hashtags:    r.FormValue("hashtags"),
		Author:      author,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, uploadResponse{OK: true, Success: true, Video: video})
}

func (h *FeedHandler) tooLarge() error {
	return service.FileTooLarge(h.maxUpload)
}

func (h *FeedHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, empty := h.feedService.ListFeed()
	WriteJSON(w, http.StatusOK, feedResponse{Videos: videos, Empty: empty})
}

func (h *FeedHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := h.feedService.GetVideo(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, video)
}

// RecordView answers ok for unknown videos too; views are fire-and-forget.
func (h *FeedHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	_, err := h.feedService.RecordView(ctxkeys.ClientIP(r.Context()), id)
	if errors.Is(err, service.ErrNotFound) {
		slog.Debug("view for unknown video", "id", id)
	} else if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *FeedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "invalid JSON body")
		return
	}

	err = validation.Struct(req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	username := req.Username
	if user := ctxkeys.User(r.Context()); user != nil {
		username = user.DisplayName
	}

	comment, err := h.feedService.AddComment(ctxkeys.ClientIP(r.Context()), r.PathValue("id"), req.Text, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, commentResponse{OK: true, Success: true, Comment: comment})
}

func (h *FeedHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, likes, err := h.feedService.ToggleLike(ctxkeys.ClientIP(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, likeResponse{OK: true, Liked: liked, Likes: likes})
}

// decodeJSON reads a small JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
