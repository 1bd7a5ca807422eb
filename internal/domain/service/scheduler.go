package service

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Task 予約済みの遅延処理。発火前ならキャンセルできる
type Task interface {
	// Cancel 未発火のタスクを止める。止められた場合はtrue
	Cancel() bool
	// Armed 発火待ちの状態か
	Armed() bool
}

// Scheduler 遅延処理を予約する
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
	Now() time.Time
}

// --- time.AfterFunc による実装 ---

type realScheduler struct{}

// NewRealScheduler 実時間で動くSchedulerを返す
func NewRealScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) AfterFunc(d time.Duration, fn func()) Task {
	t := &realTask{}
	t.timer = time.AfterFunc(d, func() {
		t.fired.Store(true)
		fn()
	})
	return t
}

type realTask struct {
	timer     *time.Timer
	fired     atomic.Bool
	cancelled atomic.Bool
}

func (t *realTask) Cancel() bool {
	if t.timer.Stop() {
		t.cancelled.Store(true)
		return true
	}
	return false
}

func (t *realTask) Armed() bool {
	return !t.fired.Load() && !t.cancelled.Load()
}

// --- 手動で時間を進める実装（テスト用） ---

// ManualScheduler Advanceで時間を進めたときだけ発火するScheduler
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   int
	tasks []*manualTask
}

// NewManualScheduler 指定時刻から始まるManualSchedulerを返す
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

type manualState int

const (
	taskArmed manualState = iota
	taskFired
	taskCancelled
)

type manualTask struct {
	s     *ManualScheduler
	seq   int
	at    time.Time
	fn    func()
	state manualState
}

// Now 現在の仮想時刻
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AfterFunc 仮想時刻 d 後に fn を予約する
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTask{s: s, seq: s.seq, at: s.now.Add(d), fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance 仮想時刻を d 進め、期限を迎えたタスクを予約時刻順に同期実行する
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDueLocked(target)
		if next == nil {
			s.now = target
			s.compactLocked()
			s.mu.Unlock()
			return
		}
		next.state = taskFired
		s.now = next.at
		s.mu.Unlock()

		next.fn()
	}
}

// Pending 発火待ちのタスク数
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if t.state == taskArmed {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) nextDueLocked(target time.Time) *manualTask {
	var due []*manualTask
	for _, t := range s.tasks {
		if t.state == taskArmed && !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (s *ManualScheduler) compactLocked() {
	armed := s.tasks[:0]
	for _, t := range s.tasks {
		if t.state == taskArmed {
			armed = append(armed, t)
		}
	}
	s.tasks = armed
}

func (t *manualTask) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.state != taskArmed {
		return false
	}
	t.state = taskCancelled
	return true
}

func (t *manualTask) Armed() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.state == taskArmed
}

// --- セッションのロックで直列化するラッパー ---

// serializedScheduler コールバックをセッションのロック下で実行する
type serializedScheduler struct {
	inner Scheduler
	guard func(fn func())
}

func (s serializedScheduler) Now() time.Time { return s.inner.Now() }

func (s serializedScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return s.inner.AfterFunc(d, func() { s.guard(fn) })
}
