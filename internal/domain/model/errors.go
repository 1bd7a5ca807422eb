package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRoutableTarget 終点が未選択かつ遺跡が1件もない
	ErrNoRoutableTarget = errors.New("ルートの終点を決定できません")
	// ErrFeatureNotFound 指定IDの遺跡が存在しない
	ErrFeatureNotFound = errors.New("遺跡が見つかりません")
	// ErrStoryNotFound 指定IDの物語パネルが存在しない（期限切れ含む）
	ErrStoryNotFound = errors.New("物語パネルが見つかりません")
	// ErrSessionNotFound 指定IDのセッションが存在しない
	ErrSessionNotFound = errors.New("セッションが見つかりません")
	// ErrSessionClosed 終了済みセッションへの操作
	ErrSessionClosed = errors.New("セッションは終了しています")
)

// LoadError 遺跡データのロード失敗（ネットワーク、HTTPステータス、不正なペイロード）
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("遺跡データのロードに失敗 (%s): %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError LoadErrorを生成する
func NewLoadError(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}
