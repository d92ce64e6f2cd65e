package service

import (
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/rpc"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid          = errors.New("参数错误")
	ErrUnauthenticated       = errors.New("未登录")
	ErrSubjectTypeInvalid    = errors.New("不支持的回应对象")
	ErrReactionKindInvalid   = errors.New("不支持的回应类型")
	ErrPostNotFound          = errors.New("帖子不存在")
	ErrCommentNotFound       = errors.New("评论不存在")
	ErrCommentParentMismatch = errors.New("父评论不属于该帖子")
	ErrCommentContentInvalid = errors.New("评论内容不能为空")
	ErrFollowSelf            = errors.New("用户不能关注自己")
	ErrTargetUserInvalid     = errors.New("目标用户无效")
	ErrNotificationNotFound  = mongo.ErrNotificationNotFound
	ErrMovieNotFound         = errors.New("电影不存在")
	ErrRatingScoreInvalid    = errors.New("评分必须在 1 到 5 之间")
	ErrRejected              = rpc.ErrRejected
	UnExpectedError          = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:          BadRequest,
	ErrUnauthenticated:       Unauthorized,
	ErrSubjectTypeInvalid:    BadRequest,
	ErrReactionKindInvalid:   BadRequest,
	ErrPostNotFound:          NotFound,
	ErrCommentNotFound:       NotFound,
	ErrCommentParentMismatch: BadRequest,
	ErrCommentContentInvalid: BadRequest,
	ErrFollowSelf:            BadRequest,
	ErrTargetUserInvalid:     BadRequest,
	ErrNotificationNotFound:  NotFound,
	ErrMovieNotFound:         NotFound,
	ErrRatingScoreInvalid:    BadRequest,
	ErrRejected:              BadRequest,
	UnExpectedError:          InternalServerError,
}
