package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxPageBytes caps how much HTML is parsed from a listing page
const maxPageBytes = 4 * 1024 * 1024

// Gallery fetches the public gallery
func (c *Client) Gallery(ctx context.Context) (*Page, error) {
	return c.fetchPage(ctx, "gallery", PathGallery)
}

// MyImages fetches the signed-in user's images
func (c *Client) MyImages(ctx context.Context) (*Page, error) {
	return c.fetchPage(ctx, "my images", PathMyImages)
}

func (c *Client) fetchPage(ctx context.Context, op, path string) (*Page, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: op, Code: resp.StatusCode}
	}

	// login_required bounces to the login page
	if landedOn(resp, PathLogin) {
		return nil, ErrNotAuthenticated
	}

	page, err := c.ParsePage(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	return page, nil
}

// ParsePage extracts gallery cards and flash messages from server HTML.
// Image references are resolved against the server root.
func (c *Client) ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{
		Items:   []GalleryItem{},
		Flashes: parseFlashes(doc),
	}

	doc.Find(".gallery-item").Each(func(i int, s *goquery.Selection) {
		item := GalleryItem{
			ID:      strings.TrimSpace(s.AttrOr("data-image-id", "")),
			Caption: strings.TrimSpace(s.AttrOr("data-caption", "")),
		}
		if original := strings.TrimSpace(s.AttrOr("data-original-url", "")); original != "" {
			item.OriginalURL = c.Resolve(original)
		}

		img := s.Find("img").First()
		thumb := strings.TrimSpace(img.AttrOr("src", ""))
		if thumb == "" {
			// lazily loaded cards keep the real source in data-src
			thumb = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if thumb != "" {
			item.ThumbnailURL = c.Resolve(thumb)
		}

		if item.ID == "" {
			item.ID = fmt.Sprintf("%d", i+1)
		}

		if item.OriginalURL == "" && item.ThumbnailURL == "" {
			return
		}
		page.Items = append(page.Items, item)
	})

	return page, nil
}

// ParseFlashes extracts flash messages from an HTML document
func ParseFlashes(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return parseFlashes(doc), nil
}

func parseFlashes(doc *goquery.Document) []string {
	var flashes []string
	doc.Find(".flash-message").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			flashes = append(flashes, text)
		}
	})
	return flashes
}
