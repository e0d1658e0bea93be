package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipfeed/clipfeed/internal/app"
	"github.com/clipfeed/clipfeed/internal/config"
)

func newTestApp(t *testing.T) (*app.App, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_PATH", dir)
	t.Setenv("VIDEOS_FILE", filepath.Join(dir, "videos.json"))
	t.Setenv("USERS_FILE", filepath.Join(dir, "users.json"))
	t.Setenv("MEDIA_PATH", filepath.Join(dir, "uploads"))
	t.Setenv("UPLOAD_MAX_SIZE", "1MiB")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "*")
	t.Setenv("IDENTITY_MODE", config.IdentityLocal)
	t.Setenv("USER_STORE", config.UserStoreJSON)
	t.Setenv("STORAGE_DRIVER", config.StorageLocal)
	t.Setenv("TRUST_PROXY_HEADERS", "")
	cfg := config.Load()

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)
	return a, srv
}

func decode(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	defer res.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return res
}

func uploadClip(t *testing.T, url, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not really a video"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("hashtags", "#go"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func TestWebClientIsServed(t *testing.T) {
	_, srv := newTestApp(t)

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/api/videos")
}

func TestUploadThenStreamMedia(t *testing.T) {
	_, srv := newTestApp(t)

	res := uploadClip(t, srv.URL, "")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	video := decode(t, res)["video"].(map[string]any)
	assert.Equal(t, []any{"#go"}, video["hashtags"])

	media, err := http.Get(srv.URL + "/media/" + video["filename"].(string))
	require.NoError(t, err)
	defer media.Body.Close()
	assert.Equal(t, http.StatusOK, media.StatusCode)
	assert.Equal(t, "video/mp4", media.Header.Get("Content-Type"))
	data, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, "not really a video", string(data))

	res, err = http.Get(srv.URL + "/media/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "no directory listing")
}

func TestBearerTokenSetsAuthorAndBanBlocksWrites(t *testing.T) {
	a, srv := newTestApp(t)

	res := postJSON(t, srv.URL+"/auth/register", map[string]string{"username": "alice", "password": "correct horse"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	token := decode(t, res)["token"].(string)

	res = uploadClip(t, srv.URL, token)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "alice", decode(t, res)["video"].(map[string]any)["author"])

	_, err := a.AuthService.SetBanned("alice", true)
	require.NoError(t, err)

	res = uploadClip(t, srv.URL, token)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, "BANNED", decode(t, res)["code"])

	res = uploadClip(t, srv.URL, "not-a-token")
	assert.Equal(t, http.StatusCreated, res.StatusCode, "invalid tokens are treated as anonymous")
	res.Body.Close()
}

func TestLoginIsRateLimited(t *testing.T) {
	_, srv := newTestApp(t)

	var last *http.Response
	for i := 0; i < 6; i++ {
		if last != nil {
			last.Body.Close()
		}
		last = postJSON(t, srv.URL+"/auth/login", map[string]string{"username": "nobody", "password": "whatever1"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode(t, last)["code"])
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestApp(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/like/x", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	_, srv := newTestApp(t)

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body := decode(t, res)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(0), body["videos"])
}

func TestForwardedHeadersIgnoredByDefault(t *testing.T) {
	a, srv := newTestApp(t)

	res := uploadClip(t, srv.URL, "")
	require.Equal(t, http.StatusCreated, res.StatusCode)
	id := decode(t, res)["video"].(map[string]any)["id"].(string)

	for _, forwarded := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/view/"+id, nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", forwarded)
		req.Header.Set("X-Real-IP", forwarded)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	video, err := a.FeedService.GetVideo(id)
	require.NoError(t, err)
	assert.Equal(t, 1, video.Views, "one socket address counts once")
}
