package interaction

import (
	"strings"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
)

// DefaultCaption labels gallery images that carry no caption
const DefaultCaption = "Pet Image"

// Lightbox shows one image full size with its caption
type Lightbox struct {
	modals  *Modals
	url     string
	caption string
	armed   bool
}

// NewLightbox creates a lightbox whose visibility is owned by modals
func NewLightbox(modals *Modals) *Lightbox {
	return &Lightbox{modals: modals}
}

// Open shows url with caption and arms click-to-dismiss
func (l *Lightbox) Open(url, caption string) {
	l.url = url
	l.caption = caption
	l.armed = true
	l.modals.Open(ModalLightbox)
}

// ClickImage dismisses the lightbox once per Open. It reports whether it fired.
func (l *Lightbox) ClickImage() bool {
	if !l.armed || !l.Visible() {
		return false
	}
	l.armed = false
	l.Close()
	return true
}

// Close hides the lightbox
func (l *Lightbox) Close() {
	l.armed = false
	l.modals.Close(ModalLightbox)
}

// OpenFromPreview enlarges the upload preview, captioned with the file name.
// Nothing happens until the preview has been read.
func (l *Lightbox) OpenFromPreview(file *SelectedFile) bool {
	if file == nil || file.Preview == "" {
		return false
	}
	l.Open(file.Preview, file.Name)
	return true
}

// OpenFromGallery enlarges a gallery card, preferring its original image
func (l *Lightbox) OpenFromGallery(item api.GalleryItem) bool {
	url := item.OriginalURL
	if url == "" {
		url = item.ThumbnailURL
	}
	if url == "" {
		return false
	}
	caption := strings.TrimSpace(item.Caption)
	if caption == "" {
		caption = DefaultCaption
	}
	l.Open(url, caption)
	return true
}

// Visible reports whether the lightbox is showing
func (l *Lightbox) Visible() bool {
	return l.modals.IsOpen(ModalLightbox)
}

// Image returns the current image URL and caption
func (l *Lightbox) Image() (string, string) {
	return l.url, l.caption
}
