package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// UploadRequest describes one image post
type UploadRequest struct {
	Path        string
	Caption     string
	ContentType string
	Progress    utils.ProgressCallback
	// Wrap lets callers decorate the file stream (e.g. a terminal progress bar)
	Wrap func(r io.Reader, size int64) io.Reader
}

// uploadError wraps upload related errors
type uploadError struct {
	operation string
	path      string
	err       error
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("upload %s failed for %s: %v", e.operation, e.path, e.err)
}

func (e *uploadError) Unwrap() error {
	return e.err
}

// Upload posts the image as multipart form data the way the site's upload form does.
// The returned outcome is unsuccessful (with the server's flash message) when the
// server re-renders the form instead of redirecting to the image list.
func (c *Client) Upload(ctx context.Context, up UploadRequest) (*FormOutcome, error) {
	file, err := os.Open(up.Path)
	if err != nil {
		return nil, &uploadError{operation: "open file", path: up.Path, err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &uploadError{operation: "get file info", path: up.Path, err: err}
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType, _ = utils.DetectContentType(up.Path, nil)
	}

	var body io.Reader = utils.NewCallbackReader(file, info.Size(), up.Progress)
	if up.Wrap != nil {
		body = up.Wrap(body, info.Size())
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, filepath.Base(up.Path), contentType, up.Caption, body))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, PathUpload, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, &uploadError{operation: "post", path: up.Path, err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{Op: "upload", Code: resp.StatusCode}
	}

	outcome, err := c.interpretUpload(resp)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"file":    filepath.Base(up.Path),
		"size":    info.Size(),
		"success": outcome.Success,
	}).Info("upload finished")
	return outcome, nil
}

func writeUploadForm(mw *multipart.Writer, name, contentType, caption string, body io.Reader) error {
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

// interpretUpload maps the server's reply onto a FormOutcome
func (c *Client) interpretUpload(resp *http.Response) (*FormOutcome, error) {
	if isJSON(resp) {
		var outcome FormOutcome
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&outcome); err != nil {
			return nil, &RequestError{Op: "decode upload response", Err: err}
		}
		return &outcome, nil
	}

	if landedOn(resp, PathLogin) {
		return nil, ErrNotAuthenticated
	}

	flashes, err := ParseFlashes(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, &RequestError{Op: "parse upload response", Err: err}
	}

	outcome := &FormOutcome{}
	if len(flashes) > 0 {
		outcome.Message = flashes[len(flashes)-1]
	}
	// a stored image redirects to the owner's list, a rejected one re-renders the form
	if landedOn(resp, PathMyImages) {
		outcome.Success = true
		outcome.Redirect = PathMyImages
	}
	return outcome, nil
}

// IsNotAuthenticated reports whether err means the server wants a login
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
