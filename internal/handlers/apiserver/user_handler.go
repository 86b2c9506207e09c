package apiserver

import (
	"net/http"

	"chatgo/internal/middleware"
	"chatgo/internal/services"
)

// UserHandler 封装了用户信息相关的 HTTP 处理器方法。
type UserHandler struct {
	UserService services.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{UserService: userService}
}

// SearchUsers 处理 GET /users/search?q=...，返回带关系标签的搜索结果。
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		// 空查询返回空列表而不是全表
		writeJSONResponse(w, http.StatusOK, []services.UserSearchResult{})
		return
	}

	results, err := h.UserService.SearchUsers(r.Context(), query, currentUserID)
	if err != nil {
		writeJSONError(w, "搜索用户失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, results)
}

// GetMe 处理 GET /users/me，返回当前登录用户的信息。
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), currentUserID)
	if err != nil {
		writeJSONError(w, "查询用户失败", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}
