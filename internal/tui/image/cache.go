package image

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const cacheIndexFile = ".cache_index.json"

// CacheManager 管理已下载图片的磁盘缓存，键为图片 URL
type CacheManager struct {
	cacheDir string
	maxSize  int64
	index    map[string]*CacheEntry
	mutex    sync.Mutex
}

// CacheEntry 缓存条目
type CacheEntry struct {
	Key         string
	FilePath    string
	Size        int64
	AccessTime  time.Time
	CreateTime  time.Time
	ContentType string
	Checksum    string // 用于验证文件完整性
}

// CacheIndex 缓存索引
type CacheIndex struct {
	Entries   map[string]*CacheEntry
	TotalSize int64
}

// NewCacheManager 创建新的缓存管理器
func NewCacheManager(cacheDir string, maxSize int64) *CacheManager {
	// 确保缓存目录存在
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logrus.WithError(err).Warn("failed to create image cache directory")
	}

	cm := &CacheManager{
		cacheDir: cacheDir,
		maxSize:  maxSize,
		index:    make(map[string]*CacheEntry),
	}

	// 加载现有的缓存索引
	if err := cm.loadIndex(); err != nil {
		logrus.WithError(err).Debug("ignoring unreadable image cache index")
	}
	return cm
}

// Get 从缓存中获取文件路径
func (c *CacheManager) Get(key string) (string, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.index[key]
	if !exists {
		return "", false, nil
	}

	// 文件已被删除，从索引中移除
	if _, err := os.Stat(entry.FilePath); errors.Is(err, os.ErrNotExist) {
		delete(c.index, key)
		return "", false, nil
	}

	entry.AccessTime = time.Now()
	return entry.FilePath, true, nil
}

// Put 写入缓存并在超出容量时按 LRU 清理
func (c *CacheManager) Put(key, contentType string, data []byte) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	sum := sha256.Sum256([]byte(key))
	cachePath := filepath.Join(c.cacheDir, hex.EncodeToString(sum[:16]))

	tmp := cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", &CacheError{Operation: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		os.Remove(tmp)
		return "", &CacheError{Operation: "rename", Path: cachePath, Err: err}
	}

	checksum := sha256.Sum256(data)
	now := time.Now()
	c.index[key] = &CacheEntry{
		Key:         key,
		FilePath:    cachePath,
		Size:        int64(len(data)),
		AccessTime:  now,
		CreateTime:  now,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(checksum[:]),
	}

	c.cleanupByLRU(key)
	if err := c.saveIndex(); err != nil {
		logrus.WithError(err).Debug("failed to save image cache index")
	}
	return cachePath, nil
}

// Delete 从缓存中删除文件
func (c *CacheManager) Delete(key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.index[key]
	if !exists {
		return nil
	}
	if err := os.Remove(entry.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CacheError{Operation: "delete", Path: entry.FilePath, Err: err}
	}
	delete(c.index, key)
	return c.saveIndex()
}

// GetSize 获取缓存总大小
func (c *CacheManager) GetSize() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.totalSize()
}

// VerifyChecksum 检查缓存文件是否与写入时一致
func (c *CacheManager) VerifyChecksum(key string) (bool, error) {
	c.mutex.Lock()
	entry, exists := c.index[key]
	c.mutex.Unlock()
	if !exists {
		return false, nil
	}

	data, err := os.ReadFile(entry.FilePath)
	if err != nil {
		return false, &CacheError{Operation: "verify", Path: entry.FilePath, Err: err}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) == entry.Checksum, nil
}

// GetCacheStats 获取缓存统计信息
func (c *CacheManager) GetCacheStats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	total := c.totalSize()
	stats := CacheStats{
		TotalFiles: len(c.index),
		TotalSize:  total,
		MaxSize:    c.maxSize,
	}
	if c.maxSize > 0 {
		stats.UsagePercent = float64(total) / float64(c.maxSize) * 100
	}
	return stats
}

// cleanupByLRU 删除最久未访问的条目直到不超过容量，keep 不会被删除
func (c *CacheManager) cleanupByLRU(keep string) {
	current := c.totalSize()
	if c.maxSize <= 0 || current <= c.maxSize {
		return
	}

	entries := make([]*CacheEntry, 0, len(c.index))
	for _, entry := range c.index {
		if entry.Key != keep {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessTime.Before(entries[j].AccessTime)
	})

	for _, entry := range entries {
		if current <= c.maxSize {
			break
		}
		if err := os.Remove(entry.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			continue
		}
		current -= entry.Size
		delete(c.index, entry.Key)
	}
}

func (c *CacheManager) totalSize() int64 {
	var total int64
	for _, entry := range c.index {
		total += entry.Size
	}
	return total
}

// saveIndex 保存缓存索引到磁盘
func (c *CacheManager) saveIndex() error {
	data, err := json.MarshalIndent(&CacheIndex{Entries: c.index, TotalSize: c.totalSize()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.cacheDir, cacheIndexFile), data, 0644)
}

// loadIndex 从磁盘加载缓存索引
func (c *CacheManager) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(c.cacheDir, cacheIndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// 索引文件不存在，这是正常的（首次使用）
			return nil
		}
		return err
	}

	var cacheIndex CacheIndex
	if err := json.Unmarshal(data, &cacheIndex); err != nil {
		return err
	}

	for key, entry := range cacheIndex.Entries {
		if _, err := os.Stat(entry.FilePath); err == nil {
			c.index[key] = entry
		}
	}
	return nil
}
