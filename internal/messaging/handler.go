package messaging

import (
	"errors"
	"net/http"
	"strconv"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/pkg/middleware"

	"github.com/labstack/echo/v4"
)

// Handler exposes the messaging engine over HTTP.
type Handler struct {
	service   *Service
	directory *directory.Service
}

// NewHandler creates a new messaging handler.
func NewHandler(service *Service, dir *directory.Service) *Handler {
	return &Handler{service: service, directory: dir}
}

// currentUser resolves the JWT identity set by the middleware against the
// directory.
func (h *Handler) currentUser(c echo.Context) (directory.User, bool) {
	claims, ok := c.Get("user").(*middleware.JWTClaims)
	if !ok || claims == nil {
		return directory.User{}, false
	}
	return h.directory.FindByEmail(claims.Email)
}

// CreateMessageRequest mirrors the compose form.
type CreateMessageRequest struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	Recipients       string   `json:"recipients"`
	CustomGroups     []int64  `json:"custom_groups"`
	ManualRecipients string   `json:"manual_recipients"` // Comma separated, as entered in the form
	Priority         string   `json:"priority"`
	Attachments      []string `json:"attachments"`
	ScheduleType     string   `json:"schedule_type"`
	ScheduleDate     string   `json:"schedule_date"`
	ScheduleTime     string   `json:"schedule_time"`
}

func (r CreateMessageRequest) addressing() (Addressing, error) {
	mode, err := ParseAddressMode(r.Recipients)
	if err != nil {
		return Addressing{}, err
	}
	return Addressing{
		Mode:         mode,
		GroupIDs:     r.CustomGroups,
		ManualEmails: ParseManualEmails(r.ManualRecipients),
	}, nil
}

func (h *Handler) CreateMessage(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	sender, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	addr, err := req.addressing()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	msg, err := h.service.CreateMessage(CreateMessageInput{
		Title:        req.Title,
		Content:      req.Content,
		Addressing:   addr,
		Priority:     req.Priority,
		Attachments:  req.Attachments,
		ScheduleType: req.ScheduleType,
		ScheduleDate: req.ScheduleDate,
		ScheduleTime: req.ScheduleTime,
		Sender:       sender,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ListMessages())
}

// GetRecipients previews the audience for an addressing before sending.
func (h *Handler) GetRecipients(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	sender, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	addr, err := req.addressing()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, h.service.GetRecipients(addr, sender))
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	if err := h.service.MarkRead(id, user.ID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Marked as read"})
}

func (h *Handler) Acknowledge(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	if err := h.service.Acknowledge(id, user.ID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Acknowledged"})
}

func (h *Handler) Stats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	report, err := h.service.Stats(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}

// AddCommentRequest posts a comment, optionally as a reply.
type AddCommentRequest struct {
	ParentCommentID *int64 `json:"parent_comment_id"`
	Content         string `json:"content"`
}

func (h *Handler) AddComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	var req AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	author, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	comment, err := h.service.AddComment(id, req.ParentCommentID, author, req.Content)
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, comment)
}

func (h *Handler) DeleteComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid comment id"})
	}
	if err := h.service.DeleteComment(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Comment deleted"})
}

func (h *Handler) Thread(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	return c.JSON(http.StatusOK, h.service.Thread(id))
}

func (h *Handler) Notifications(c echo.Context) error {
	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	unreadOnly := c.QueryParam("unread") == "true"
	notifications := h.service.Notifications(user.ID, unreadOnly)
	if notifications == nil {
		notifications = []Notification{}
	}
	return c.JSON(http.StatusOK, notifications)
}

func (h *Handler) MarkNotificationRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid notification id"})
	}
	if err := h.service.MarkNotificationRead(id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkMessageNotificationsRead clears the caller's notification trail for one
// message, typically when the message detail view opens.
func (h *Handler) MarkMessageNotificationsRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid message id"})
	}
	user, ok := h.currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not found in directory"})
	}
	changed := h.service.MarkMessageNotificationsRead(id, user.ID)
	return c.JSON(http.StatusOK, map[string]int{"updated": changed})
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
