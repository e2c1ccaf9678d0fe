package handler

import (
	"net/http"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/middleware"
	"github.com/CoconutOil2004/project-sdn-group302/internal/service"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// ConversationHandler handles conversation HTTP requests
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// CreateOrGet handles POST /conversations
// Responds 201 when the conversation was created, 200 when it already existed.
// @Summary Tạo hoặc lấy hội thoại
// @Tags conversations
// @Accept json
// @Produce json
// @Param request body domain.CreateConversationRequest true "Loại hội thoại, participants và tin nhắn đầu tiên"
// @Success 201 {object} common.V2Response{data=domain.ThreadSummary}
// @Success 200 {object} common.V2Response{data=domain.ThreadSummary}
// @Failure 403 {object} common.V2Response
// @Failure 422 {object} common.V2Response
// @Security BearerAuth
// @Router /conversations [post]
func (h *ConversationHandler) CreateOrGet(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req domain.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "Dữ liệu yêu cầu không hợp lệ", err)
		return
	}

	summary, created, err := h.service.CreateOrGet(c.Request.Context(), p, &req)
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}

	if created {
		common.V2Created(c, summary)
		return
	}
	common.V2Success(c, summary)
}

// ListThreads handles GET /conversations
// @Summary Danh sách hội thoại
// @Tags conversations
// @Produce json
// @Param page query int false "Trang" default(1)
// @Param pageSize query int false "Số hội thoại mỗi trang" default(20)
// @Param type query string false "DIRECT, USER_CLUB, CLUB_BROADCAST hoặc EVENT"
// @Success 200 {object} common.V2Response{data=[]domain.ThreadSummary,meta=common.V2Meta}
// @Security BearerAuth
// @Router /conversations [get]
func (h *ConversationHandler) ListThreads(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	page := ginutil.QueryInt(c, "page", 1)
	pageSize := pageSizeQuery(c)

	threads, meta, err := h.service.ListThreads(c.Request.Context(), p, page, pageSize, c.Query("type"))
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2SuccessWithMeta(c, threads, meta)
}

// ListMessages handles GET /conversations/:key/messages
// @Summary Tin nhắn của hội thoại
// @Tags conversations
// @Produce json
// @Param key path string true "Khóa hội thoại (URL-encoded)"
// @Param page query int false "Trang" default(1)
// @Param pageSize query int false "Số tin nhắn mỗi trang" default(20)
// @Success 200 {object} common.V2Response{data=domain.MessagePage,meta=common.V2Meta}
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /conversations/{key}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	key := ginutil.ParamUnescaped(c, "key")
	page := ginutil.QueryInt(c, "page", 1)
	pageSize := pageSizeQuery(c)

	result, meta, err := h.service.ListMessages(c.Request.Context(), p, key, page, pageSize)
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2SuccessWithMeta(c, result, meta)
}

// SendMessage handles POST /conversations/:key/messages
// @Summary Gửi tin nhắn
// @Tags conversations
// @Accept json
// @Produce json
// @Param key path string true "Khóa hội thoại (URL-encoded)"
// @Param request body domain.SendMessageRequest true "Nội dung và tệp đính kèm"
// @Success 201 {object} common.V2Response{data=domain.MessageView}
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /conversations/{key}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "Dữ liệu yêu cầu không hợp lệ", err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), p, ginutil.ParamUnescaped(c, "key"), &req)
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2Created(c, msg)
}

// MarkRead handles PUT /conversations/:key/read
// @Summary Đánh dấu đã đọc
// @Tags conversations
// @Produce json
// @Param key path string true "Khóa hội thoại (URL-encoded)"
// @Success 200 {object} common.V2Response{data=domain.ReadResult}
// @Security BearerAuth
// @Router /conversations/{key}/read [put]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	result, err := h.service.MarkRead(c.Request.Context(), p, ginutil.ParamUnescaped(c, "key"))
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2Success(c, result)
}

// Pin handles PUT /conversations/:key/pin
// @Summary Ghim hội thoại
// @Tags conversations
// @Produce json
// @Param key path string true "Khóa hội thoại (URL-encoded)"
// @Success 200 {object} common.V2Response{data=domain.PinState}
// @Failure 403 {object} common.V2Response
// @Security BearerAuth
// @Router /conversations/{key}/pin [put]
func (h *ConversationHandler) Pin(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	state, err := h.service.Pin(c.Request.Context(), p, ginutil.ParamUnescaped(c, "key"))
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2Success(c, state)
}

// Unpin handles PUT /conversations/:key/unpin
// @Summary Bỏ ghim hội thoại
// @Tags conversations
// @Produce json
// @Param key path string true "Khóa hội thoại (URL-encoded)"
// @Success 200 {object} common.V2Response{data=domain.PinState}
// @Security BearerAuth
// @Router /conversations/{key}/unpin [put]
func (h *ConversationHandler) Unpin(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	state, err := h.service.Unpin(c.Request.Context(), p, ginutil.ParamUnescaped(c, "key"))
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2Success(c, state)
}

// ListUsers handles GET /users
// @Summary Tìm người dùng để nhắn tin
// @Tags users
// @Produce json
// @Param search query string false "Tên hoặc email"
// @Param limit query int false "Số kết quả" default(50)
// @Success 200 {object} common.V2Response{data=[]domain.UserView}
// @Security BearerAuth
// @Router /users [get]
func (h *ConversationHandler) ListUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	users, err := h.service.SearchUsers(c.Request.Context(), p, c.Query("search"), ginutil.QueryInt(c, "limit", 0))
	if err != nil {
		common.V2ErrorFromErr(c, err)
		return
	}
	common.V2Success(c, users)
}

// principal writes 401 and returns false when no caller is authenticated
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		common.V2ErrorResponse(c, http.StatusUnauthorized, "Vui lòng đăng nhập", nil)
		return domain.Principal{}, false
	}
	return p, true
}

// pageSizeQuery accepts both pageSize and limit
func pageSizeQuery(c *gin.Context) int {
	if v := ginutil.QueryInt(c, "pageSize", 0); v != 0 {
		return v
	}
	return ginutil.QueryInt(c, "limit", 0)
}
