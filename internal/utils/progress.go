package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressCallback receives upload progress
type ProgressCallback func(sent, total int64, percentage float64)

// ProgressReader wraps an io.Reader and displays upload progress on stderr
type ProgressReader struct {
	reader      io.Reader
	total       int64
	read        int64
	description string
	startTime   time.Time
	lastPrint   time.Time
	finished    bool
	lastLineLen int
}

// NewProgressReader creates a new progress reader
func NewProgressReader(reader io.Reader, total int64, description string) *ProgressReader {
	return &ProgressReader{
		reader:      reader,
		total:       total,
		description: description,
		startTime:   time.Now(),
		lastPrint:   time.Now(),
	}
}

// Read implements io.Reader interface and shows progress
func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)

	if n > 0 {
		pr.read += int64(n)

		// Update progress every 200ms or on EOF/error
		now := time.Now()
		if now.Sub(pr.lastPrint) > 200*time.Millisecond || err != nil {
			pr.printProgress()
			pr.lastPrint = now
		}
	}

	if err == io.EOF && !pr.finished {
		pr.finished = true
		pr.printProgress()
		fmt.Fprintln(os.Stderr)
	}

	return n, err
}

// printProgress displays the current progress
func (pr *ProgressReader) printProgress() {
	if pr.total <= 0 {
		return
	}

	percentage := float64(pr.read) / float64(pr.total) * 100
	if percentage > 100 {
		percentage = 100
	}

	var speed string
	elapsed := time.Since(pr.startTime)
	if elapsed.Seconds() > 0.1 {
		bytesPerSec := float64(pr.read) / elapsed.Seconds()
		speed = fmt.Sprintf(" %s/s", FormatSize(int64(bytesPerSec)))
	}

	barWidth := 40
	filled := int(percentage * float64(barWidth) / 100)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", barWidth-filled) + "]"

	line := fmt.Sprintf("%s %s %.1f%% (%s/%s)%s",
		pr.description,
		bar,
		percentage,
		FormatSize(pr.read),
		FormatSize(pr.total),
		speed)

	// Clear previous line if it was longer
	if pr.lastLineLen > len(line) {
		fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", pr.lastLineLen))
	}

	fmt.Fprintf(os.Stderr, "\r%s", line)
	pr.lastLineLen = len(line)
}

// Close finishes the progress display
func (pr *ProgressReader) Close() error {
	if !pr.finished {
		pr.finished = true
		pr.printProgress()
		fmt.Fprintln(os.Stderr)
	}
	return nil
}

// CallbackReader reports progress through a callback instead of the terminal,
// for callers that render their own progress (the TUI)
type CallbackReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback ProgressCallback
}

// NewCallbackReader wraps reader; a nil callback makes it a plain passthrough
func NewCallbackReader(reader io.Reader, total int64, callback ProgressCallback) *CallbackReader {
	return &CallbackReader{reader: reader, total: total, callback: callback}
}

// Read implements io.Reader interface and fires the progress callback
func (cr *CallbackReader) Read(p []byte) (n int, err error) {
	n, err = cr.reader.Read(p)

	if n > 0 {
		cr.read += int64(n)
		if cr.callback != nil && cr.total > 0 {
			percentage := float64(cr.read) / float64(cr.total) * 100
			if percentage > 100 {
				percentage = 100
			}
			cr.callback(cr.read, cr.total, percentage)
		}
	}

	return n, err
}

// FormatSize formats bytes in human readable IEC units
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
