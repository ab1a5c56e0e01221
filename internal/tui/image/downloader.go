package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxDownloadBytes 单张图片的下载上限
const MaxDownloadBytes = 32 * 1024 * 1024

// ImageDownloader 通过 HTTP 获取图片
type ImageDownloader struct {
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewImageDownloader 创建新的图片下载器
func NewImageDownloader(timeout time.Duration) *ImageDownloader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ImageDownloader{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
}

// Download 下载图片，返回内容和 Content-Type
func (d *ImageDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &NetworkError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "image/*")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", &NetworkError{Op: "get image", Err: err}
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"url":         url,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("image fetched")

	if resp.StatusCode != http.StatusOK {
		return nil, "", &NetworkError{Op: "get image", Code: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, "", &NetworkError{Op: "read image", Code: resp.StatusCode, Err: err}
	}
	if len(data) > MaxDownloadBytes {
		return nil, "", &NetworkError{Op: "read image", Code: resp.StatusCode, Err: fmt.Errorf("image exceeds %d bytes", MaxDownloadBytes)}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// DownloadWithRetry 带重试机制的下载
func (d *ImageDownloader) DownloadWithRetry(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		// 指数退避
		if attempt > 0 {
			wait := d.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, "", ctx.Err()
			}
		}

		data, contentType, err := d.Download(ctx, url)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	return nil, "", fmt.Errorf("download failed: %w", lastErr)
}

// isRetryableError 判断错误是否可重试：超时或服务端 5xx
func isRetryableError(err error) bool {
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	if netErr.Code >= http.StatusInternalServerError {
		return true
	}

	var timeout net.Error
	if errors.As(netErr.Err, &timeout) && timeout.Timeout() {
		return true
	}
	return false
}
