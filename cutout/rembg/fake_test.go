package rembg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeSession struct {
	shape  ModelShapeInfo
	closed atomic.Bool
}

func (s *fakeSession) Shape() ModelShapeInfo { return s.shape }

func (s *fakeSession) Run(_ context.Context, input *Tensor) (*Tensor, error) {
	return input, nil
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

// countingLoader 记录加载次数，可注入延迟和失败
type countingLoader struct {
	mu    sync.Mutex
	calls map[Model]int

	delay time.Duration
	fail  atomic.Bool
}

func newCountingLoader() *countingLoader {
	return &countingLoader{calls: make(map[Model]int)}
}

func (l *countingLoader) Load(ctx context.Context, model Model) (Session, error) {
	l.mu.Lock()
	l.calls[model]++
	l.mu.Unlock()

	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.fail.Load() {
		return nil, errors.New("boom")
	}
	return &fakeSession{shape: ModelShapeInfo{InputDims: []int64{1, 3, 320, 320}}}, nil
}

func (l *countingLoader) count(model Model) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[model]
}
