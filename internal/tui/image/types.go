package image

import (
	"fmt"
	"time"
)

// ImageFormat 支持的图片格式
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
)

// ImageSize 图片尺寸信息
type ImageSize struct {
	Width  int
	Height int
}

// SourceKind 图片来源
type SourceKind string

const (
	SourceDataURL SourceKind = "data-url"
	SourceRemote  SourceKind = "remote"
	SourceFile    SourceKind = "file"
)

// ImagePreview 表示一次渲染结果
type ImagePreview struct {
	Source       string
	Kind         SourceKind
	OriginalSize ImageSize
	Format       ImageFormat
	RenderedData string // 渲染后的终端输出数据
	RenderCols   int    // 实际渲染占用的列数（终端单元）
	RenderRows   int    // 实际渲染占用的行数（终端单元）
	CacheHit     bool
	LoadTime     time.Duration
}

// RenderError 渲染错误类型
type RenderError struct {
	Protocol string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error with %s protocol: %v", e.Protocol, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// CacheError 缓存错误类型
type CacheError struct {
	Operation string
	Path      string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error during %s operation on %s: %v", e.Operation, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// NetworkError 网络错误类型
type NetworkError struct {
	Op   string
	Err  error
	Code int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s (code: %d): %v", e.Op, e.Code, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FormatError 文件格式错误类型
type FormatError struct {
	Format string
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error for %s image %s: %s", e.Format, e.Source, e.Reason)
}

// CacheStats 缓存统计信息
type CacheStats struct {
	TotalFiles   int
	TotalSize    int64
	MaxSize      int64
	UsagePercent float64
}
