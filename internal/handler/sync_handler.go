package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cphub-api/internal/middleware"
	"github.com/yourusername/cphub-api/internal/service"
)

// SyncHandler обрабатывает запросы на синхронизацию результатов
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler создает новый обработчик синхронизации
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// SyncRequest представляет параметры запуска синхронизации
type SyncRequest struct {
	// VjudgeSession — сессионная кука JSESSIONID для закрытых контестов VJudge
	VjudgeSession string `json:"vjudge_session" binding:"omitempty,max=200"`
}

// SyncEvent запускает синхронизацию результатов события.
// По умолчанию ответ — поток SSE с прогрессом; ?silent=true возвращает
// единый JSON после завершения.
//
// Запущенная синхронизация доводится до конца независимо от судьбы
// HTTP-соединения: отключение клиента прекращает только доставку прогресса.
func (h *SyncHandler) SyncEvent(c *gin.Context) {
	eventID := middleware.GetUintParam(c, "eventID")

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := service.SyncOptions{EventID: eventID, VjudgeSession: req.VjudgeSession}

	if c.Query("silent") == "true" {
		h.runSilent(c, opts)
		return
	}
	h.runStreaming(c, opts)
}

// SyncSelf синхронизирует результаты только аутентифицированного пользователя
// (апсерт одной записи вместо полной замены)
func (h *SyncHandler) SyncSelf(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	eventID := middleware.GetUintParam(c, "eventID")

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.runSilent(c, service.SyncOptions{
		EventID:       eventID,
		OnlyUserID:    userID,
		VjudgeSession: req.VjudgeSession,
	})
}

func (h *SyncHandler) runSilent(c *gin.Context, opts service.SyncOptions) {
	// Контекст намеренно не привязан к запросу: запись статистики обязана
	// завершиться даже при обрыве соединения.
	result, err := h.syncService.SyncEvent(context.Background(), opts, nil)
	if err != nil {
		if service.IsAuthRequired(err) {
			c.JSON(http.StatusUnauthorized, result)
			return
		}
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SyncHandler) runStreaming(c *gin.Context, opts service.SyncOptions) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Буфер достаточно велик, чтобы медленный или отвалившийся клиент не
	// тормозил синхронизацию; при переполнении сообщения прогресса теряются,
	// работа — нет.
	messages := make(chan service.SyncMessage, 256)
	emit := func(msg service.SyncMessage) {
		select {
		case messages <- msg:
		default:
			log.Printf("[SyncHandler] Буфер SSE переполнен, сообщение %s пропущено", msg.Type)
		}
	}

	go func() {
		defer close(messages)
		if _, err := h.syncService.SyncEvent(context.Background(), opts, emit); err != nil {
			// Сообщение об ошибке уже отправлено через emit
			log.Printf("[SyncHandler] Синхронизация события #%d завершилась ошибкой: %v", opts.EventID, err)
		}
	}()

	c.Stream(func(w io.Writer) bool {
		msg, ok := <-messages
		if !ok {
			return false
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			log.Printf("[SyncHandler] Ошибка сериализации сообщения: %v", err)
			return true
		}
		c.SSEvent(msg.Type, string(payload))
		return true
	})
}
