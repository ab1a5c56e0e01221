package interaction

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/api"
	"github.com/HaiFongPan/furryfriends-cli/internal/tui/messaging"
	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

const (
	keyPreview = "upload:preview"
	keyUpload  = "upload:post"
)

// Upload notices
const (
	MsgUnsupportedType   = "Please select image files (JPG, PNG, GIF, BMP, WebP)"
	MsgSelectImageFirst  = "Please select an image to upload"
	MsgUploading         = "Uploading image... Please wait"
	MsgUploadSucceeded   = "Image uploaded successfully!"
	MsgUploadFailed      = "Upload failed"
	MsgPreviewReadFailed = "Could not read the selected file"
)

// FileTooLargeText is the notice for a file over limit bytes. Whole mebibytes read as "10MB".
func FileTooLargeText(limit int64) string {
	if limit > 0 && limit%(1<<20) == 0 {
		return fmt.Sprintf("File size cannot exceed %dMB", limit>>20)
	}
	return "File size cannot exceed " + humanize.IBytes(uint64(max(limit, 0)))
}

// Candidate is a file offered for upload, as a file input would describe it
type Candidate struct {
	Name      string
	Size      int64
	MediaType string
	Path      string
}

// CandidateFromPath describes a local file. The media type is derived from its name.
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, err
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}
	mediaType, _ := utils.DetectContentType(path, nil)
	return Candidate{
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: mediaType,
		Path:      path,
	}, nil
}

// SelectedFile is the current upload selection
type SelectedFile struct {
	Candidate
	// Preview is a data URL, empty until the file has been read
	Preview string
	ticket  Ticket
}

// Preview is the result of reading a selection into a data URL
type Preview struct {
	DataURL string
}

// UploadReply is the result of an upload post
type UploadReply struct {
	Name    string
	Outcome *api.FormOutcome
}

// UploadPipeline validates a selection, previews it and gates the upload form
type UploadPipeline struct {
	presenter Presenter
	modals    *Modals
	tracker   *Tracker
	uploader  Uploader
	opts      Options

	selected *SelectedFile
	posting  bool
}

func newUploadPipeline(p Presenter, m *Modals, t *Tracker, u Uploader, opts Options) *UploadPipeline {
	return &UploadPipeline{presenter: p, modals: m, tracker: t, uploader: u, opts: opts}
}

// SelectFile validates c and, when it is acceptable, makes it the selection and
// starts reading its preview. A too-large file leaves any previous selection in place;
// a non-image clears it.
func (p *UploadPipeline) SelectFile(c Candidate) (tea.Cmd, error) {
	switch err := ValidateCandidate(c, p.opts.MaxUploadBytes); {
	case errors.Is(err, ErrFileTooLarge):
		p.presenter.ResetFileInput()
		logrus.WithFields(logrus.Fields{"file": c.Name, "size": c.Size}).Debug("UploadPipeline: file too large")
		return p.presenter.Notify(FileTooLargeText(p.opts.MaxUploadBytes), messaging.MessageWarning), err
	case errors.Is(err, ErrUnsupportedType):
		p.presenter.ResetFileInput()
		p.clear()
		logrus.WithFields(logrus.Fields{"file": c.Name, "type": c.MediaType}).Debug("UploadPipeline: unsupported type")
		return p.presenter.Notify(MsgUnsupportedType, messaging.MessageWarning), err
	}

	ticket := p.tracker.Issue(keyPreview)
	p.selected = &SelectedFile{Candidate: c, ticket: ticket}

	limit := p.opts.MaxUploadBytes
	return Run(ticket, func() (Preview, error) {
		return readPreview(c, limit)
	}), nil
}

// ValidateCandidate checks c against the upload form's rules: at most limit bytes, and an image.
// Size is checked first.
func ValidateCandidate(c Candidate, limit int64) error {
	if c.Size > limit {
		return ErrFileTooLarge
	}
	if !utils.IsImageType(c.MediaType) {
		return ErrUnsupportedType
	}
	return nil
}

// readPreview reads the file into a data URL, refusing files that grew past limit
func readPreview(c Candidate, limit int64) (Preview, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return Preview{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return Preview{}, err
	}
	if int64(len(data)) > limit {
		return Preview{}, ErrFileTooLarge
	}
	return Preview{DataURL: utils.EncodeDataURL(c.MediaType, data)}, nil
}

// applyPreview installs a preview if it belongs to the current selection
func (p *UploadPipeline) applyPreview(res TaskResult[Preview]) tea.Cmd {
	if !p.tracker.Fresh(res.Ticket) || p.selected == nil || p.selected.ticket != res.Ticket {
		logrus.Debugf("UploadPipeline: discarding stale preview seq=%d", res.Ticket.Seq)
		return nil
	}

	if res.Err != nil {
		logrus.WithError(res.Err).WithField("file", p.selected.Name).Warn("failed to read preview")
		p.presenter.ResetFileInput()
		p.clear()
		if errors.Is(res.Err, ErrFileTooLarge) {
			return p.presenter.Notify(FileTooLargeText(p.opts.MaxUploadBytes), messaging.MessageWarning)
		}
		return p.presenter.Notify(MsgPreviewReadFailed, messaging.MessageError)
	}

	p.selected.Preview = res.Value.DataURL
	return nil
}

// Selected returns the current selection, or nil
func (p *UploadPipeline) Selected() *SelectedFile {
	return p.selected
}

// PreviewVisible reports whether a preview should be shown
func (p *UploadPipeline) PreviewVisible() bool {
	return p.selected != nil && p.selected.Preview != ""
}

// Ready reports whether the form may be submitted
func (p *UploadPipeline) Ready() bool {
	return p.selected != nil
}

// Posting reports whether an upload post is outstanding
func (p *UploadPipeline) Posting() bool {
	return p.posting
}

// RemoveSelection drops the selection and resets the input
func (p *UploadPipeline) RemoveSelection() {
	p.clear()
	p.presenter.ResetFileInput()
}

func (p *UploadPipeline) clear() {
	p.selected = nil
	p.tracker.Retire(keyPreview)
}

// Submit gates the upload form. With nothing selected it refuses and returns false.
// Otherwise the selection is consumed and, when an Uploader is configured, posted.
func (p *UploadPipeline) Submit(caption string) (tea.Cmd, bool) {
	if p.selected == nil {
		return p.presenter.Notify(MsgSelectImageFirst, messaging.MessageWarning), false
	}

	file := p.selected.Candidate
	p.RemoveSelection()
	notice := p.presenter.Notify(MsgUploading, messaging.MessageInfo)
	if p.uploader == nil {
		return notice, true
	}

	p.posting = true
	ticket := p.tracker.Issue(keyUpload)
	uploader, timeout, progress := p.uploader, p.opts.UploadTimeout, p.opts.OnProgress
	post := Run(ticket, func() (UploadReply, error) {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		outcome, err := uploader.Upload(ctx, api.UploadRequest{
			Path:        file.Path,
			Caption:     caption,
			ContentType: file.MediaType,
			Progress:    progress,
		})
		return UploadReply{Name: file.Name, Outcome: outcome}, err
	})

	logrus.WithFields(logrus.Fields{"file": file.Name, "size": file.Size}).Info("UploadPipeline: submitting upload")
	return tea.Batch(notice, post), true
}

func (p *UploadPipeline) applyUpload(res TaskResult[UploadReply]) tea.Cmd {
	if !p.tracker.Fresh(res.Ticket) {
		return nil
	}
	p.posting = false

	if res.Err != nil {
		if api.IsNotAuthenticated(res.Err) {
			return p.presenter.Notify(MsgPleaseLoginFirst, messaging.MessageWarning)
		}
		logrus.WithError(res.Err).WithField("file", res.Value.Name).Error("upload failed")
		return p.presenter.Notify(MsgUploadFailed, messaging.MessageError)
	}

	outcome := res.Value.Outcome
	if outcome == nil || !outcome.Success {
		text := MsgUploadFailed
		if outcome != nil && outcome.Message != "" {
			text = outcome.Message
		}
		return p.presenter.Notify(text, messaging.MessageError)
	}

	p.modals.Close(ModalUpload)
	target := outcome.Redirect
	if target == "" {
		target = api.PathMyImages
	}
	return tea.Batch(
		p.presenter.Notify(MsgUploadSucceeded, messaging.MessageSuccess),
		p.presenter.Navigate(target),
	)
}
