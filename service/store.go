package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaos-io/cutout/util"
	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

var (
	ErrResultNotFound  = errors.New("result not found")
	ErrInvalidResultID = errors.New("invalid result id")
)

const resultExt = ".png"

// ResultStore 把结果 PNG 保存在本地目录，文件名为 ksuid
//
// ksuid 自带时间戳，过期清理直接按 id 判断，不依赖文件 mtime。
type ResultStore struct {
	dir       string
	retention time.Duration
}

func NewResultStore(dir string, retention time.Duration) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &ResultStore{dir: dir, retention: retention}, nil
}

func (s *ResultStore) path(id string) string {
	return filepath.Join(s.dir, id+resultExt)
}

// Save 保存 PNG 并返回新 id
func (s *ResultStore) Save(data []byte) (string, error) {
	id := ksuid.New().String()
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return id, nil
}

// Load 读取结果
func (s *ResultStore) Load(id string) ([]byte, error) {
	if _, err := ksuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResultID, id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResultNotFound, id)
		}
		return nil, fmt.Errorf("read result: %w", err)
	}
	return data, nil
}

// Exists 结果是否仍在存储中
func (s *ResultStore) Exists(id string) bool {
	if _, err := ksuid.Parse(id); err != nil {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Cleanup 删除早于 now-retention 的结果，返回删除数量
func (s *ResultStore) Cleanup(now time.Time) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read result dir: %w", err)
	}

	deadline := now.Add(-s.retention)
	removed := 0
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, resultExt) {
			continue
		}
		id, err := ksuid.Parse(strings.TrimSuffix(name, resultExt))
		if err != nil {
			continue
		}
		if !id.Time().Before(deadline) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// StartCleanup 按 cron 表达式定期清理，返回的 Cron 由调用方 Stop
func (s *ResultStore) StartCleanup(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := s.Cleanup(time.Now())
		if err != nil {
			util.Logger.Warn("result cleanup failed", zap.Error(err))
		}
		if n > 0 {
			util.Logger.Info("expired results removed", zap.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup spec %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
