// Package clock は現在時刻の取得を差し替え可能にします。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返します。
type Clock interface {
	Now() time.Time
}

// System は実際の時刻をUTCで返すClockです。
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Manual はテスト用のClockです。Set/Advanceを呼ぶまで時刻は進みません。
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual はtを現在時刻とするManualを作成します。
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set は現在時刻をtに設定します。
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance は現在時刻をdだけ進めます。
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
