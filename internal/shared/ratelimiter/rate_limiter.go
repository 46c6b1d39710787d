// Package ratelimiter は外部APIへのリクエスト頻度を制限します。
package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// Limiter は操作の頻度を制限するインターフェースです。
type Limiter interface {
	// Wait は上限に達していれば次のウィンドウまで待機します。ctx がキャンセルされた場合はそのエラーを返します。
	Wait(ctx context.Context) error
}

// RateLimiter は固定ウィンドウ方式で interval あたり limit 回までに呼び出しを制限します。
// 複数のゴルーチンから安全に使用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // ウィンドウの長さ
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。limit が 0 以下なら制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Wait は上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limit <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}
	rl.count++
	var sleep time.Duration
	if rl.count > rl.limit {
		sleep = rl.interval - now.Sub(rl.lastReset)
		// 次のウィンドウの最初の1回として数える
		rl.count = 1
		rl.lastReset = now.Add(sleep)
	}
	rl.mu.Unlock()

	if sleep <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
