package admin

import (
	"strconv"

	handlershared "github.com/vialpool-next/internal/http/handlers/shared"
	"github.com/vialpool-next/internal/http/response"
	"github.com/vialpool-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

// phaseActor 组装阶段变更的操作者信息
func phaseActor(c *gin.Context) (service.PhaseActor, bool) {
	adminID, ok := getAdminID(c)
	if !ok {
		return service.PhaseActor{}, false
	}
	return service.PhaseActor{
		AdminID:   adminID,
		Username:  c.GetString("admin_username"),
		RequestID: c.GetString("request_id"),
	}, true
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

// pageParams 读取分页查询参数并钳位
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return normalizePagination(page, pageSize)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
