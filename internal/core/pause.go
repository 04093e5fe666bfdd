package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPause 等待时长必须为正数
var ErrInvalidPause = errors.New("等待时长必须大于0")

// Pause 阻塞 d 时长，ctx 取消时提前返回 ctx.Err()
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPause, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
