package interaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/config"
)

func TestLightboxClickImageIsOneShot(t *testing.T) {
	m := NewModals()
	l := NewLightbox(m)

	l.Open("http://pets.local/a.jpg", "Sleepy cat")
	assert.True(t, l.Visible())
	assert.True(t, m.ScrollLocked())
	url, caption := l.Image()
	assert.Equal(t, "http://pets.local/a.jpg", url)
	assert.Equal(t, "Sleepy cat", caption)

	assert.True(t, l.ClickImage())
	assert.False(t, l.Visible())
	assert.False(t, m.ScrollLocked())
	assert.False(t, l.ClickImage())
}

func TestLightboxBackdropCloseDisarms(t *testing.T) {
	m := NewModals()
	l := NewLightbox(m)
	l.Open("x", "y")

	m.CloseOnOutsideClick(ModalLightbox, true)
	assert.False(t, l.ClickImage())
}

func TestLightboxOpenFromGallery(t *testing.T) {
	tests := []struct {
		name        string
		item        api.GalleryItem
		wantURL     string
		wantCaption string
		wantOpen    bool
	}{
		{
			name:        "original preferred",
			item:        api.GalleryItem{Caption: "Rex", OriginalURL: "o.jpg", ThumbnailURL: "t.jpg"},
			wantURL:     "o.jpg",
			wantCaption: "Rex",
			wantOpen:    true,
		},
		{
			name:        "thumbnail fallback with default caption",
			item:        api.GalleryItem{ThumbnailURL: "t.jpg", Caption: "  "},
			wantURL:     "t.jpg",
			wantCaption: DefaultCaption,
			wantOpen:    true,
		},
		{
			name: "no image",
			item: api.GalleryItem{Caption: "nothing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLightbox(NewModals())
			assert.Equal(t, tt.wantOpen, l.OpenFromGallery(tt.item))
			assert.Equal(t, tt.wantOpen, l.Visible())
			if tt.wantOpen {
				url, caption := l.Image()
				assert.Equal(t, tt.wantURL, url)
				assert.Equal(t, tt.wantCaption, caption)
			}
		})
	}
}

func TestLightboxParsedCardUsesDefaultCaption(t *testing.T) {
	client, err := api.NewClient(&config.ServerConfig{BaseURL: "http://pets.local", Timeout: 5})
	require.NoError(t, err)

	// alt 文本不是标题
	page, err := client.ParsePage(strings.NewReader(
		`<div class="gallery-item" data-original-url="/o.jpg"><img src="/t.jpg" alt="thumbnail"></div>`))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	l := NewLightbox(NewModals())
	require.True(t, l.OpenFromGallery(page.Items[0]))
	url, caption := l.Image()
	assert.Equal(t, "http://pets.local/o.jpg", url)
	assert.Equal(t, DefaultCaption, caption)
}

func TestLightboxOpenFromPreview(t *testing.T) {
	l := NewLightbox(NewModals())
	assert.False(t, l.OpenFromPreview(nil))
	assert.False(t, l.OpenFromPreview(&SelectedFile{Candidate: Candidate{Name: "a.png"}}))

	file := &SelectedFile{Candidate: Candidate{Name: "a.png"}, Preview: "data:image/png;base64,AAAA"}
	assert.True(t, l.OpenFromPreview(file))
	url, caption := l.Image()
	assert.Equal(t, file.Preview, url)
	assert.Equal(t, "a.png", caption)
}
