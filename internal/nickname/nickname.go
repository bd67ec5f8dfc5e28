// Package nickname 生成帖子内匿名昵称：模板词干 + 4 位随机数字后缀。
//
// 随机源由调用方注入，测试时传入固定种子即可得到确定结果。
package nickname

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
)

const (
	SuffixMin          = 1000
	SuffixMax          = 9999
	DefaultMaxAttempts = 100
)

var (
	ErrNoTemplates = errors.New("nickname: no templates configured")
	ErrExhausted   = errors.New("nickname: no unique nickname within attempt budget")
)

// Source 随机数来源，*rand.Rand 满足该接口
type Source interface {
	Intn(n int) int
}

// TakenFunc 判断候选昵称是否已被占用
type TakenFunc func(candidate string) (bool, error)

// Generate 随机挑选一个模板，然后不断尝试新的数字后缀，直到 taken 返回 false。
// 超过 maxAttempts 次仍冲突时返回 ErrExhausted。
func Generate(src Source, templates []string, maxAttempts int, taken TakenFunc) (string, error) {
	if len(templates) == 0 {
		return "", ErrNoTemplates
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	stem := templates[src.Intn(len(templates))]
	for i := 0; i < maxAttempts; i++ {
		candidate := Compose(stem, Suffix(src))
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

// Suffix 返回 [SuffixMin, SuffixMax] 区间内的随机数
func Suffix(src Source) int {
	return SuffixMin + src.Intn(SuffixMax-SuffixMin+1)
}

func Compose(stem string, suffix int) string {
	return stem + strconv.Itoa(suffix)
}

// lockedSource 让 *rand.Rand 可以被多个请求并发使用
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Intn(n)
}

// NewSource 返回并发安全的随机源
func NewSource(seed int64) Source {
	return Locked(rand.New(rand.NewSource(seed)))
}

// Locked 为任意 Source 加锁
func Locked(src Source) Source {
	return &lockedSource{src: src}
}
