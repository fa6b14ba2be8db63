package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/middleware"
	"github.com/yourusername/cphub-api/internal/service"
)

// EventHandler обрабатывает запросы, связанные с событиями
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler создает новый обработчик событий
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// EventRequest представляет запрос на создание или обновление события
type EventRequest struct {
	Title              string    `json:"title" binding:"required,min=3,max=150"`
	Description        string    `json:"description" binding:"omitempty"`
	Type               string    `json:"type" binding:"omitempty,oneof=contest class other"`
	StartTime          time.Time `json:"start_time" binding:"required"`
	EndTime            time.Time `json:"end_time" binding:"required"`
	EventLink          string    `json:"event_link" binding:"omitempty,max=255"`
	OpenForAttendance  bool      `json:"open_for_attendance"`
	StrictAttendance   bool      `json:"strict_attendance"`
	AttendancePassword string    `json:"attendance_password" binding:"omitempty,max=50"`
}

func (r *EventRequest) toEntity(id uint) *entity.Event {
	eventType := r.Type
	if eventType == "" {
		eventType = entity.EventTypeContest
	}
	return &entity.Event{
		ID:                 id,
		Title:              r.Title,
		Description:        r.Description,
		Type:               eventType,
		StartTime:          r.StartTime,
		EndTime:            r.EndTime,
		EventLink:          r.EventLink,
		OpenForAttendance:  r.OpenForAttendance,
		StrictAttendance:   r.StrictAttendance,
		AttendancePassword: r.AttendancePassword,
	}
}

// CreateEvent обрабатывает запрос на создание события
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := req.toEntity(0)
	if err := h.eventService.CreateEvent(event); err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// GetEvent возвращает событие со связанными лидербордами
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID := middleware.GetUintParam(c, "eventID")

	event, err := h.eventService.GetEventByID(eventID)
	if err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEvents возвращает страницу событий, опционально по типу
func (h *EventHandler) ListEvents(c *gin.Context) {
	page, perPage, offset := pagination(c, 20)

	events, total, err := h.eventService.ListEvents(c.Query("type"), perPage, offset)
	if err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":   events,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// UpdateEvent обрабатывает запрос на обновление события
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID := middleware.GetUintParam(c, "eventID")

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := req.toEntity(eventID)
	if err := h.eventService.UpdateEvent(event); err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent обрабатывает запрос на удаление события
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID := middleware.GetUintParam(c, "eventID")

	if err := h.eventService.DeleteEvent(eventID); err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// MarkAttendanceRequest представляет запрос на отметку присутствия
type MarkAttendanceRequest struct {
	Password string `json:"password" binding:"omitempty,max=50"`
}

// MarkAttendance отмечает присутствие аутентифицированного пользователя
func (h *EventHandler) MarkAttendance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	eventID := middleware.GetUintParam(c, "eventID")

	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eventService.MarkAttendance(userID, eventID, req.Password); err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Attendance marked"})
}

// GetAttendance возвращает статус отметки текущего пользователя и счётчик
func (h *EventHandler) GetAttendance(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	eventID := middleware.GetUintParam(c, "eventID")

	marked, err := h.eventService.HasAttendance(userID, eventID)
	if err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}
	count, err := h.eventService.CountAttendance(eventID)
	if err != nil {
		handleServiceError(c, "EventHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": marked, "total": count})
}
