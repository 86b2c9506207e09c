package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"chatgo/internal/middleware"
	"chatgo/internal/models"
	"chatgo/internal/services"
)

// MessageHandler 封装了消息相关的 HTTP 处理器方法。
type MessageHandler struct {
	MessageService services.MessageService
}

// NewMessageHandler 创建一个新的 MessageHandler 实例。
func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{MessageService: messageService}
}

// SendMessagePayload 是发送消息的请求体。
// ReceiverID 仅在首次向推导出的 DM 频道发消息时需要。
type SendMessagePayload struct {
	ChannelID  string             `json:"channelId"`
	Type       models.MessageType `json:"type,omitempty"`
	Content    string             `json:"content"`
	FileName   string             `json:"fileName,omitempty"`
	FileURL    string             `json:"fileUrl,omitempty"`
	ReceiverID string             `json:"receiverId,omitempty"`
}

// SendMessage 处理 POST /messages。
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	var payload SendMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.ChannelID == "" {
		writeJSONError(w, "频道ID不能为空", http.StatusBadRequest)
		return
	}
	if payload.Content == "" && payload.FileURL == "" {
		writeJSONError(w, "消息内容不能为空", http.StatusBadRequest)
		return
	}

	message, err := h.MessageService.SendMessage(r.Context(), services.SendMessageInput{
		ChannelID:  payload.ChannelID,
		SenderID:   senderID,
		Type:       payload.Type,
		Content:    payload.Content,
		FileName:   payload.FileName,
		FileURL:    payload.FileURL,
		ReceiverID: payload.ReceiverID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChannelNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrReceiverRequired):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			writeJSONError(w, "发送消息失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, message)
}

// GetChannelMessages 处理 GET /channels/{channelID}/messages。
func (h *MessageHandler) GetChannelMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "用户未认证", http.StatusUnauthorized)
		return
	}

	channelID := mux.Vars(r)["channelID"]
	if channelID == "" {
		writeJSONError(w, "频道ID不能为空", http.StatusBadRequest)
		return
	}

	messages, err := h.MessageService.GetChannelMessages(r.Context(), channelID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChannelNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotChannelMember):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			writeJSONError(w, "查询频道消息失败", http.StatusInternalServerError)
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, messages)
}
