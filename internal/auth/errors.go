package auth

import "errors"

// ErrSessionUnavailable はセッション基盤（ストア）に到達できない場合のエラーです。
// 匿名扱いへ降格させず、リクエスト自体を失敗させます。
var ErrSessionUnavailable = errors.New("session store unavailable")
