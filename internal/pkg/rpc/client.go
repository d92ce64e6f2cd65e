package rpc

import (
	"Murmur/internal/api/config"
	"Murmur/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ErrRejected 后端以 {success:false} 拒绝了请求
var ErrRejected = errors.New("rejected by backend")

type RejectedError struct {
	Fn      string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Fn, ErrRejected)
	}
	return fmt.Sprintf("%s: %s", e.Fn, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// Envelope 校验型 RPC 的统一返回
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Caller 调用托管后端上的存储过程
type Caller interface {
	Call(ctx context.Context, fn string, args any) (*Envelope, error)
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.RPCURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", cfg.APIKey)
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal

	return &Client{http: c}
}

// Call 传输错误原样包装返回；success=false 转换为 *RejectedError
func (c *Client) Call(ctx context.Context, fn string, args any) (*Envelope, error) {
	req := c.http.R().SetContext(ctx).SetBody(args)
	if traceID, ok := ctx.Value(logger.TraceIDKey).(string); ok {
		req.SetHeader("X-Trace-Id", traceID)
	}

	start := time.Now()
	resp, err := req.Post("/" + fn)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc %s", fn)
	}
	log.InfoContext(ctx, "RPC", "fn", fn, "status", resp.StatusCode(), "latency", time.Since(start))

	// 非 2xx 一律是传输层错误，即使响应体恰好是 JSON
	if resp.IsError() {
		return nil, errors.Errorf("rpc %s: status %d: %s", fn, resp.StatusCode(), truncate(resp.String(), 200))
	}
	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.Wrapf(err, "rpc %s: decode envelope", fn)
	}
	if !env.Success {
		return &env, &RejectedError{Fn: fn, Message: env.Message}
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...[truncated]"
}
