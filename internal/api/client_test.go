package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/furryfriends-cli/internal/config"
)

const galleryHTML = `<html><body>
<div class="flash-message">  图片上传成功！ </div>
<div class="gallery-grid">
  <div class="gallery-item" data-image-id="7" data-original-url="/static/originals/a.jpg" data-caption="Sleepy cat">
    <img src="/static/thumbs/a.jpg" alt="thumb">
  </div>
  <div class="gallery-item" data-original-url="https://cdn.example.com/b.png">
    <img data-src="https://cdn.example.com/b_small.png" alt="Dog at the beach">
  </div>
  <div class="gallery-item"><span>broken card</span></div>
</div>
</body></html>`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.ServerConfig{BaseURL: server.URL, Timeout: 5})
	require.NoError(t, err)
	return client, server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestCheckAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathCheckAuth, func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("session")
		writeJSON(w, AuthStatus{Authenticated: err == nil})
	})
	client, _ := newTestClient(t, mux)

	ok, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	client.RestoreCookies([]config.StoredCookie{{Name: "session", Value: "abc"}})
	ok, err = client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAuthErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		_, err := client.CheckAuth(context.Background())
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		_, err := client.CheckAuth(context.Background())
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		client, err := NewClient(&config.ServerConfig{BaseURL: server.URL, Timeout: 1})
		require.NoError(t, err)
		server.Close()

		_, err = client.CheckAuth(context.Background())
		require.Error(t, err)
	})
}

func TestLoginSendsAjaxForm(t *testing.T) {
	var gotHeader, gotUser, gotPass, gotType atomic.Value
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathLogin, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		gotHeader.Store(r.Header.Get("X-Requested-With"))
		gotType.Store(r.Header.Get("Content-Type"))
		gotUser.Store(r.PostForm.Get("username"))
		gotPass.Store(r.PostForm.Get("password"))

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		writeJSON(w, FormOutcome{Success: true, Message: "Login successful!", Redirect: "/"})
	}))

	outcome, err := client.Login(context.Background(), map[string][]string{
		"username": {"alice"},
		"password": {"secret"},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "/", outcome.Redirect)
	assert.Equal(t, "XMLHttpRequest", gotHeader.Load())
	assert.Equal(t, "application/x-www-form-urlencoded", gotType.Load())
	assert.Equal(t, "alice", gotUser.Load())
	assert.Equal(t, "secret", gotPass.Load())

	cookies := client.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "s1", cookies[0].Value)
}

func TestRegisterFailureKeepsServerMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathRegister, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "message": "用户名已存在"}`))
	}))

	outcome, err := client.Register(context.Background(), map[string][]string{"username": {"bob"}})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "用户名已存在", outcome.Message)
}

func TestLoginNonJSONResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := client.Login(context.Background(), nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}

func TestLogout(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc(PathLogout, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, PathHome, http.StatusFound)
	})
	mux.HandleFunc(PathHome, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("home"))
	})
	client, _ := newTestClient(t, mux)
	client.RestoreCookies([]config.StoredCookie{{Name: "session", Value: "abc"}})

	require.NoError(t, client.Logout(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Empty(t, client.Cookies())
}

func TestParsePage(t *testing.T) {
	client, err := NewClient(&config.ServerConfig{BaseURL: "http://pets.local:5000/", Timeout: 5})
	require.NoError(t, err)

	page, err := client.ParsePage(strings.NewReader(galleryHTML))
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, GalleryItem{
		ID:           "7",
		Caption:      "Sleepy cat",
		OriginalURL:  "http://pets.local:5000/static/originals/a.jpg",
		ThumbnailURL: "http://pets.local:5000/static/thumbs/a.jpg",
	}, page.Items[0])

	// 没有 data-caption 时标题留空（alt 不作为标题），没有 src 时使用 data-src
	assert.Equal(t, "2", page.Items[1].ID)
	assert.Empty(t, page.Items[1].Caption)
	assert.Equal(t, "https://cdn.example.com/b.png", page.Items[1].OriginalURL)
	assert.Equal(t, "https://cdn.example.com/b_small.png", page.Items[1].ThumbnailURL)

	assert.Equal(t, []string{"图片上传成功！"}, page.Flashes)
}

func TestParsePageEmpty(t *testing.T) {
	client, err := NewClient(&config.ServerConfig{BaseURL: "http://pets.local", Timeout: 5})
	require.NoError(t, err)

	page, err := client.ParsePage(strings.NewReader("<html><body><p>No images yet</p></body></html>"))
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.Flashes)
}

func TestMyImagesRequiresLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathMyImages, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, PathLogin+"?next=%2Fimages", http.StatusFound)
	})
	mux.HandleFunc(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><form></form></html>"))
	})
	client, _ := newTestClient(t, mux)

	_, err := client.MyImages(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.True(t, IsNotAuthenticated(err))
}

func TestGallery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathGallery, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(galleryHTML))
	})
	client, server := newTestClient(t, mux)

	page, err := client.Gallery(context.Background())
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, server.URL+"/static/originals/a.jpg", page.Items[0].OriginalURL)
}

func writeTempImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestUploadSuccessRedirectsToImages(t *testing.T) {
	payload := []byte(strings.Repeat("x", 4096))
	var gotCaption, gotName, gotType string
	var gotBody []byte

	mux := http.NewServeMux()
	mux.HandleFunc(PathUpload, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotCaption = r.FormValue("caption")
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(file)
		http.Redirect(w, r, PathMyImages, http.StatusFound)
	})
	mux.HandleFunc(PathMyImages, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="flash-message">图片上传成功！</div>`))
	})
	client, _ := newTestClient(t, mux)

	path := writeTempImage(t, "kitty.jpg", payload)
	var lastPct float64
	outcome, err := client.Upload(context.Background(), UploadRequest{
		Path:    path,
		Caption: "nap time",
		Progress: func(sent, total int64, pct float64) {
			lastPct = pct
		},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, PathMyImages, outcome.Redirect)
	assert.Equal(t, "nap time", gotCaption)
	assert.Equal(t, "kitty.jpg", gotName)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, payload, gotBody)
	assert.InDelta(t, 100.0, lastPct, 0.001)
}

func TestUploadRejectedShowsFlash(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><div class="flash-message">不支持的文件类型</div><form></form></html>`))
	}))

	path := writeTempImage(t, "notes.png", []byte("png-ish"))
	outcome, err := client.Upload(context.Background(), UploadRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "不支持的文件类型", outcome.Message)
}

func TestUploadJSONResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		writeJSON(w, FormOutcome{Success: true, Message: "ok", Redirect: "/images"})
	}))

	path := writeTempImage(t, "a.gif", []byte("GIF89a"))
	outcome, err := client.Upload(context.Background(), UploadRequest{Path: path})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "ok", outcome.Message)
}

func TestUploadMissingFile(t *testing.T) {
	client, _ := newTestClient(t, http.NotFoundHandler())
	_, err := client.Upload(context.Background(), UploadRequest{Path: filepath.Join(t.TempDir(), "missing.jpg")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadNotAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(PathUpload, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Redirect(w, r, PathLogin, http.StatusFound)
	})
	mux.HandleFunc(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	client, _ := newTestClient(t, mux)

	path := writeTempImage(t, "a.webp", []byte("RIFF"))
	_, err := client.Upload(context.Background(), UploadRequest{Path: path})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestRequestHeaders(t *testing.T) {
	var ids []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		ids = append(ids, r.Header.Get("X-Request-ID"))
		writeJSON(w, AuthStatus{})
	}))

	for i := 0; i < 2; i++ {
		_, err := client.CheckAuth(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestResolve(t *testing.T) {
	client, err := NewClient(&config.ServerConfig{BaseURL: "http://pets.local:5000/", Timeout: 5})
	require.NoError(t, err)

	assert.Equal(t, "http://pets.local:5000", client.BaseURL())
	assert.Equal(t, "http://pets.local:5000/gallery", client.Resolve(PathGallery))
	assert.Equal(t, "https://cdn.example.com/x.png", client.Resolve("https://cdn.example.com/x.png"))
}
