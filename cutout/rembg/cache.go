package rembg

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chaos-io/cutout/util"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionCache 按模型缓存推理会话
//
// 同一模型第一次请求触发加载，并发的后续请求等待同一次加载；
// 加载失败不缓存，由调用方决定是否重试。
type SessionCache struct {
	loader Loader

	mu       sync.RWMutex
	sessions map[Model]Session
	group    singleflight.Group
}

func NewSessionCache(loader Loader) *SessionCache {
	return &SessionCache{
		loader:   loader,
		sessions: make(map[Model]Session),
	}
}

func (c *SessionCache) lookup(model Model) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[model]
	return s, ok
}

// GetOrLoad 返回已缓存的会话，没有则加载
func (c *SessionCache) GetOrLoad(ctx context.Context, model Model) (Session, error) {
	if !model.Valid() {
		return nil, fmt.Errorf("%w: unknown model %q", ErrModelAssetUnavailable, model)
	}
	if s, ok := c.lookup(model); ok {
		return s, nil
	}

	ch := c.group.DoChan(string(model), func() (interface{}, error) {
		if s, ok := c.lookup(model); ok {
			return s, nil
		}

		util.Logger.Info("loading model", zap.String("model", model.String()))
		// 加载不跟随单个请求取消，其它等待者仍需要结果
		s, err := c.loader.Load(context.WithoutCancel(ctx), model)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sessions[model] = s
		c.mu.Unlock()

		shape := s.Shape()
		util.Logger.Info("model loaded",
			zap.String("model", model.String()),
			zap.Int64s("input_dims", shape.InputDims),
			zap.Int64s("output_dims", shape.OutputDims))
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Session), nil
	}
}

// Loaded 已缓存的模型数量
func (c *SessionCache) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Close 释放所有会话
func (c *SessionCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for m, s := range c.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", m, err))
		}
		delete(c.sessions, m)
	}
	return errors.Join(errs...)
}
