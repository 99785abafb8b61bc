package xsampling

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidRate 采样比率不在 [0, 1] 内
var ErrInvalidRate = errors.New("xsampling: rate must be in [0.0, 1.0]")

// ErrNilKeyFunc key 函数为 nil
var ErrNilKeyFunc = errors.New("xsampling: nil key func")

// Sampler 采样策略
type Sampler interface {
	ShouldSample(ctx context.Context) bool
}

type constSampler bool

func (s constSampler) ShouldSample(context.Context) bool { return bool(s) }

// Always 总是采样
func Always() Sampler { return constSampler(true) }

// Never 从不采样
func Never() Sampler { return constSampler(false) }

// KeyFunc 从 ctx 中取采样 key
type KeyFunc func(ctx context.Context) string

// Keyed 按 key 的一致性采样器
type Keyed struct {
	rate    float64
	keyFunc KeyFunc
}

// NewKeyed 创建一致性采样器，rate 取值 [0, 1]
func NewKeyed(rate float64, keyFunc KeyFunc) (*Keyed, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	if keyFunc == nil {
		return nil, ErrNilKeyFunc
	}
	return &Keyed{rate: rate, keyFunc: keyFunc}, nil
}

// ShouldSample 实现 Sampler
func (s *Keyed) ShouldSample(ctx context.Context) bool {
	switch {
	case s.rate <= 0:
		return false
	case s.rate >= 1:
		return true
	}

	var key string
	if ctx != nil {
		key = s.keyFunc(ctx)
	}
	if key == "" {
		return rand.Float64() < s.rate
	}
	// xxhash 跨进程确定，归一化到 [0, 1]
	return float64(xxhash.Sum64String(key))/float64(math.MaxUint64) < s.rate
}

// Rate 采样比率
func (s *Keyed) Rate() float64 {
	return s.rate
}

// New 按比率选择实现：1 为 Always，0 为 Never，其余为 Keyed
func New(rate float64, keyFunc KeyFunc) (Sampler, error) {
	if err := validateRate(rate); err != nil {
		return nil, err
	}
	switch rate {
	case 0:
		return Never(), nil
	case 1:
		return Always(), nil
	}
	return NewKeyed(rate, keyFunc)
}

func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}
