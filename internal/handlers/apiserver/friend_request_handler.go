package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"chatgo/internal/middleware"
	"chatgo/internal/services"
)

// FriendRequestHandler 封装了好友请求相关的 HTTP 处理器方法。
type FriendRequestHandler struct {
	FriendService services.FriendService
}

// NewFriendRequestHandler 创建一个新的 FriendRequestHandler 实例。
func NewFriendRequestHandler(friendService services.FriendService) *FriendRequestHandler {
	return &FriendRequestHandler{FriendService: friendService}
}

// SendFriendRequestPayload 是发送好友请求的请求体。
type SendFriendRequestPayload struct {
	ReceiverID string `json:"receiverId"`
}

// SendFriendRequest 处理 POST /friend-requests。
// 重复发送（同方向已有待处理请求）同样返回 201，接口是幂等的。
func (h *FriendRequestHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	var payload SendFriendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.ReceiverID == "" {
		writeJSONError(w, "接收者ID不能为空", http.StatusBadRequest)
		return
	}

	err := h.FriendService.SendFriendRequest(r.Context(), senderID, payload.ReceiverID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFriendRequestSelf):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrRecipientNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrAlreadyFriends):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			writeJSONError(w, "发送好友请求失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "好友请求已发送"})
}

// ListPendingRequests 处理 GET /friend-requests/pending。
func (h *FriendRequestHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	requests, err := h.FriendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "查询待处理请求失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, requests)
}

// AcceptFriendRequest 处理 POST /friend-requests/{requestID}/accept。
// 只有请求的接收者能接受，身份取自 JWT 而不是请求体。
func (h *FriendRequestHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	requestID := mux.Vars(r)["requestID"]
	if requestID == "" {
		writeJSONError(w, "请求ID不能为空", http.StatusBadRequest)
		return
	}

	err := h.FriendService.AcceptFriendRequest(r.Context(), userID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFriendRequestNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotRecipientOfRequest):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrRequestNotPending):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			writeJSONError(w, "接受好友请求失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "已接受好友请求"})
}

// ListFriends 处理 GET /friends。
func (h *FriendRequestHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	friends, err := h.FriendService.GetFriendsList(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "查询好友列表失败", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, friends)
}
