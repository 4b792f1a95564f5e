package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/cutout"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/util"
	"go.uber.org/zap"
)

// ErrQueueFull 等待处理名额超时
var ErrQueueFull = errors.New("processing queue is full")

// CutoutService 在抠图流水线外加并发控制、结果缓存和结果存储
type CutoutService struct {
	pipeline     *cutout.Pipeline
	cache        ResultCache
	store        *ResultStore
	defaults     cutout.Settings
	semaphore    chan struct{}
	queueTimeout time.Duration
}

func NewCutoutService(cfg *config.Config, pipeline *cutout.Pipeline, cache ResultCache, store *ResultStore) *CutoutService {
	if cache == nil {
		cache = NopCache{}
	}
	maxConcurrent := max(1, cfg.Pipeline.MaxConcurrent)
	return &CutoutService{
		pipeline:     pipeline,
		cache:        cache,
		store:        store,
		defaults:     cfg.Cutout.Normalize(),
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: cfg.Pipeline.QueueTimeout,
	}
}

// Defaults 未指定参数时使用的设置
func (s *CutoutService) Defaults() cutout.Settings {
	return s.defaults
}

// settingsKey 缓存键：内容 md5 加归一化后的参数
func settingsKey(md5 string, st cutout.Settings) string {
	return fmt.Sprintf("%s:%s:%d:%s:%s:%s",
		md5, st.Model, st.InputSize,
		strconv.FormatFloat(st.Threshold, 'f', -1, 64),
		strconv.FormatFloat(st.Feather, 'f', -1, 64),
		st.Background)
}

func (s *CutoutService) acquire(ctx context.Context) (func(), error) {
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	select {
	case s.semaphore <- struct{}{}:
		return func() { <-s.semaphore }, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrQueueFull
		}
		return nil, ctx.Err()
	}
}

// Process 抠图并保存结果，相同内容和参数命中缓存时直接返回已有结果
func (s *CutoutService) Process(ctx context.Context, data []byte, settings cutout.Settings) (*model.CutoutResult, []byte, error) {
	settings = settings.Normalize()
	md5 := util.BytesMD5(data)
	key := settingsKey(md5, settings)

	if cached, err := s.cache.Get(ctx, key); err != nil {
		util.Logger.Warn("failed to get cache", zap.Error(err))
	} else if cached != nil {
		if png, err := s.store.Load(cached.ID); err == nil {
			util.Logger.Info("cache hit", zap.String("cache_key", key))
			return cached, png, nil
		}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	res, err := s.pipeline.RunBytes(ctx, data, settings)
	if err != nil {
		return nil, nil, err
	}

	png, err := cutout.PNGBytes(res.Image)
	if err != nil {
		return nil, nil, err
	}
	id, err := s.store.Save(png)
	if err != nil {
		return nil, nil, err
	}

	result := &model.CutoutResult{
		ID:            id,
		MD5:           md5,
		Width:         res.Image.Bounds().Dx(),
		Height:        res.Image.Bounds().Dy(),
		InputSize:     res.InputSize,
		Settings:      res.Settings,
		Coverage:      res.Coverage,
		HasForeground: res.HasForeground,
		URL:           "/api/v1/results/" + id,
		Timestamp:     time.Now().Unix(),
	}
	if res.HasForeground {
		result.BoundingBox = &model.BBox{
			X:      res.Bounds.Min.X,
			Y:      res.Bounds.Min.Y,
			Width:  res.Bounds.Dx(),
			Height: res.Bounds.Dy(),
		}
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		util.Logger.Warn("failed to set cache", zap.Error(err))
	}

	util.Logger.Info("cutout processed",
		zap.String("id", id),
		zap.String("md5", md5),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.String("model", settings.Model.String()))
	return result, png, nil
}

// Result 读取已保存的结果 PNG
func (s *CutoutService) Result(id string) ([]byte, error) {
	return s.store.Load(id)
}
