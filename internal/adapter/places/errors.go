package places

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider calls.
var (
	ErrRateLimited = errors.New("places: rate limited")
	ErrServer      = errors.New("places: server error")
	ErrBadRequest  = errors.New("places: invalid request")
	ErrDenied      = errors.New("places: request denied")
	ErrNotFound    = errors.New("places: not found")
	ErrParse       = errors.New("places: parse response")
)

// Error 附带操作上下文的错误
type Error struct {
	Op         string // search / detail
	Query      string
	ExternalID string
	Err        error
}

func (e *Error) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("places %s [%s]: %v", e.Op, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("places %s [%q]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// retryable 网络、5xx、解析失败可以重试；限流单独处理
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrDenied), errors.Is(err, ErrNotFound):
		return false
	}
	return true
}
