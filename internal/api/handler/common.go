package handler

import (
	"Murmur/internal/pkg/response"
	"Murmur/internal/pkg/util"
	"Murmur/internal/service"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// bindJSON 解析并校验请求体，失败时已写回响应
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(obj); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return false
	}
	return true
}

// paramID 读取路径上的正整数 id
func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

// queryIDs 解析逗号分隔的 id 列表
func queryIDs(c *gin.Context, name string) ([]uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.Error(c, service.ErrParamInvalid)
		return nil, false
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 {
			response.Error(c, service.ErrParamInvalid)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
