package admin

import (
	"github.com/vialpool-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetRoles 角色列表
func (h *Handler) GetRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// GetRolePolicies 角色的权限点列表
func (h *Handler) GetRolePolicies(c *gin.Context) {
	role := c.Param("role")
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, gin.H{"policies": policies})
}

// RolePolicyRequest 授予/回收权限点请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GrantRolePolicy 给角色授予权限点，角色不存在时自动建档
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("role_policy_granted", "role", role, "object", req.Object, "action", req.Action, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{"granted": true})
}

// RevokeRolePolicy 回收角色的权限点
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("role_policy_revoked", "role", role, "object", req.Object, "action", req.Action, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{"revoked": true})
}

// SetAdminRolesRequest 覆盖式设置管理员角色请求
type SetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetAdminRoles 覆盖式设置某管理员的角色集合
func (h *Handler) SetAdminRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.SetAdminRoles(id, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	requestLog(c).Infow("admin_roles_updated", "target_admin_id", id, "roles", req.Roles, "admin_id", c.GetUint("admin_id"))
	response.Success(c, gin.H{"roles": req.Roles})
}

// GetAdminRoles 查询某管理员的角色集合
func (h *Handler) GetAdminRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}
