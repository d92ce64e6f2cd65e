package service

import (
	"Murmur/internal/pkg/consts"
	"context"
)

type actorKey struct{}

// WithActor 把当前用户写入 ctx，由身份中间件调用
func WithActor(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom 取出当前用户，未登录返回 ErrUnauthenticated
func ActorFrom(ctx context.Context) (uint64, error) {
	if id, ok := ctx.Value(actorKey{}).(uint64); ok && id != 0 {
		return id, nil
	}
	// gin.Context 作为 ctx 传入时走 Keys
	if id, ok := ctx.Value(consts.UserIDKey).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, ErrUnauthenticated
}
