package image

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/furryfriends-cli/internal/utils"
)

// ImageManager 负责加载（data URL、远程 URL、本地文件）并渲染图片
type ImageManager struct {
	cacheManager *CacheManager
	renderer     Renderer
	downloader   *ImageDownloader

	// 已解码图片的内存缓存，避免重复解码
	decoded map[string]decodedImage
	mutex   sync.Mutex
}

type decodedImage struct {
	img    image.Image
	format ImageFormat
}

// NewImageManager 创建新的图片管理器实例
func NewImageManager(cacheDir string, maxCacheSize int64, method string, timeout time.Duration) *ImageManager {
	return &ImageManager{
		cacheManager: NewCacheManager(cacheDir, maxCacheSize),
		renderer:     NewImageRenderer(method),
		downloader:   NewImageDownloader(timeout),
		decoded:      make(map[string]decodedImage),
	}
}

// Protocol 返回渲染协议
func (m *ImageManager) Protocol() GraphicsProtocol {
	return m.renderer.Protocol()
}

// Preview 加载 source 并在 cols×rows 个单元格内渲染
func (m *ImageManager) Preview(ctx context.Context, source string, cols, rows int) (*ImagePreview, error) {
	start := time.Now()

	img, format, kind, cacheHit, err := m.load(ctx, source)
	if err != nil {
		return nil, err
	}

	rendered, usedCols, usedRows, err := m.renderer.Render(img, cols, rows)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	preview := &ImagePreview{
		Source:       source,
		Kind:         kind,
		OriginalSize: ImageSize{Width: b.Dx(), Height: b.Dy()},
		Format:       format,
		RenderedData: rendered,
		RenderCols:   usedCols,
		RenderRows:   usedRows,
		CacheHit:     cacheHit,
		LoadTime:     time.Since(start),
	}

	logrus.WithFields(logrus.Fields{
		"kind":      kind,
		"format":    format,
		"cache_hit": cacheHit,
		"cols":      usedCols,
		"rows":      usedRows,
	}).Debug("image preview rendered")
	return preview, nil
}

func (m *ImageManager) load(ctx context.Context, source string) (image.Image, ImageFormat, SourceKind, bool, error) {
	kind := sourceKind(source)

	// data URL 数据较大，不作为内存缓存的键
	if kind != SourceDataURL {
		m.mutex.Lock()
		d, ok := m.decoded[source]
		m.mutex.Unlock()
		if ok {
			return d.img, d.format, kind, true, nil
		}
	}

	var (
		img      image.Image
		format   ImageFormat
		cacheHit bool
		err      error
	)
	switch kind {
	case SourceDataURL:
		var data []byte
		_, data, err = utils.DecodeDataURL(source)
		if err == nil {
			img, format, err = Decode(data, "data URL")
		}
	case SourceRemote:
		img, format, cacheHit, err = m.loadRemote(ctx, source)
	default:
		img, format, err = DecodeFile(source)
	}
	if err != nil {
		return nil, "", kind, false, err
	}

	if kind != SourceDataURL {
		m.mutex.Lock()
		m.decoded[source] = decodedImage{img: img, format: format}
		m.mutex.Unlock()
	}
	return img, format, kind, cacheHit, nil
}

func (m *ImageManager) loadRemote(ctx context.Context, url string) (image.Image, ImageFormat, bool, error) {
	if path, hit, err := m.cacheManager.Get(url); err == nil && hit {
		data, err := os.ReadFile(path)
		if err == nil {
			if img, format, err := Decode(data, url); err == nil {
				return img, format, true, nil
			}
		}
		// 缓存文件损坏，重新下载
		m.cacheManager.Delete(url)
	}

	data, contentType, err := m.downloader.DownloadWithRetry(ctx, url)
	if err != nil {
		return nil, "", false, err
	}

	img, format, err := Decode(data, url)
	if err != nil {
		return nil, "", false, err
	}

	if _, err := m.cacheManager.Put(url, contentType, data); err != nil {
		logrus.WithError(err).Debug("failed to cache image")
	}
	return img, format, false, nil
}

func sourceKind(source string) SourceKind {
	switch {
	case utils.IsDataURL(source):
		return SourceDataURL
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return SourceRemote
	default:
		return SourceFile
	}
}

// Forget 丢弃内存中的解码结果
func (m *ImageManager) Forget(source string) {
	m.mutex.Lock()
	delete(m.decoded, source)
	m.mutex.Unlock()
}

// CacheStats 返回磁盘缓存统计
func (m *ImageManager) CacheStats() CacheStats {
	return m.cacheManager.GetCacheStats()
}

// Describe 返回预览的简短描述
func (p *ImagePreview) Describe() string {
	origin := "downloaded"
	switch {
	case p.Kind == SourceDataURL:
		origin = "local preview"
	case p.Kind == SourceFile:
		origin = "file"
	case p.CacheHit:
		origin = "cached"
	}
	return fmt.Sprintf("%d×%d %s • %s", p.OriginalSize.Width, p.OriginalSize.Height, strings.ToUpper(string(p.Format)), origin)
}
