package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ssl-certgen/internal/logging"
)

// SignalHandler 信号处理器
//
// 收到 SIGINT/SIGTERM 时取消 Context()，已创建的 DNS 记录仍会被清理。
type SignalHandler struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigs   chan os.Signal
	logger *slog.Logger
}

// NewSignalHandler 创建信号处理器
func NewSignalHandler(parent context.Context, logger *slog.Logger) *SignalHandler {
	ctx, cancel := context.WithCancel(parent)
	return &SignalHandler{
		ctx:    ctx,
		cancel: cancel,
		sigs:   make(chan os.Signal, 1),
		logger: logging.Or(logger),
	}
}

// Context 返回可取消的 context
func (h *SignalHandler) Context() context.Context {
	return h.ctx
}

// Start 开始监听信号
func (h *SignalHandler) Start() {
	signal.Notify(h.sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-h.sigs:
			h.logger.Warn("收到信号，正在取消并清理...", "signal", sig.String())
			h.cancel()
		case <-h.ctx.Done():
		}
	}()
}

// Stop 停止监听并释放 context
func (h *SignalHandler) Stop() {
	signal.Stop(h.sigs)
	h.cancel()
}
