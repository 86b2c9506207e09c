package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"chatgo/internal/middleware"
	"chatgo/internal/services"
)

// ChannelHandler 封装了频道相关的 HTTP 处理器方法。
type ChannelHandler struct {
	ChannelService services.ChannelService
}

// NewChannelHandler 创建一个新的 ChannelHandler 实例。
func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{ChannelService: channelService}
}

// ListChannels 处理 GET /channels，返回合成后的会话列表。
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	views, err := h.ChannelService.ListChannels(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "查询频道列表失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, views)
}

// CreateDMChannelPayload 是创建 DM 频道的请求体。
type CreateDMChannelPayload struct {
	OtherUserID string `json:"otherUserId"`
}

// CreateDMChannel 处理 POST /channels/dm。重复创建返回同一个频道。
func (h *ChannelHandler) CreateDMChannel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	var payload CreateDMChannelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.OtherUserID == "" {
		writeJSONError(w, "对方用户ID不能为空", http.StatusBadRequest)
		return
	}
	if payload.OtherUserID == userID {
		writeJSONError(w, "不能和自己创建私聊", http.StatusBadRequest)
		return
	}

	channel, err := h.ChannelService.GetOrCreateDMChannel(r.Context(), userID, payload.OtherUserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "创建私聊频道失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, channel)
}
