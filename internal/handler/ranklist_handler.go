package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/handler/dto"
	"github.com/yourusername/cphub-api/internal/middleware"
	"github.com/yourusername/cphub-api/internal/service"
)

// RankListHandler обрабатывает запросы, связанные с лидербордами
type RankListHandler struct {
	rankListService *service.RankListService
}

// NewRankListHandler создает новый обработчик лидербордов
func NewRankListHandler(rankListService *service.RankListService) *RankListHandler {
	return &RankListHandler{rankListService: rankListService}
}

// RankListRequest представляет запрос на создание или обновление лидерборда
type RankListRequest struct {
	Title           string  `json:"title" binding:"required,min=3,max=150"`
	Session         string  `json:"session" binding:"omitempty,max=50"`
	Description     string  `json:"description" binding:"omitempty"`
	WeightOfUpsolve float64 `json:"weight_of_upsolve" binding:"omitempty,min=0,max=1"`
}

// CreateRankList обрабатывает запрос на создание лидерборда
func (h *RankListHandler) CreateRankList(c *gin.Context) {
	var req RankListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rankList := &entity.RankList{
		Title:           req.Title,
		Session:         req.Session,
		Description:     req.Description,
		WeightOfUpsolve: req.WeightOfUpsolve,
	}
	if err := h.rankListService.CreateRankList(rankList); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusCreated, rankList)
}

// GetRankList возвращает лидерборд
func (h *RankListHandler) GetRankList(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	rankList, err := h.rankListService.GetRankListByID(rankListID)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, rankList)
}

// ListRankLists возвращает страницу лидербордов, опционально по сезону
func (h *RankListHandler) ListRankLists(c *gin.Context) {
	page, perPage, offset := pagination(c, 20)

	rankLists, total, err := h.rankListService.ListRankLists(c.Query("session"), perPage, offset)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rank_lists": rankLists,
		"total":      total,
		"page":       page,
		"per_page":   perPage,
	})
}

// UpdateRankList обрабатывает запрос на обновление лидерборда
func (h *RankListHandler) UpdateRankList(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	var req RankListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rankList := &entity.RankList{
		ID:              rankListID,
		Title:           req.Title,
		Session:         req.Session,
		Description:     req.Description,
		WeightOfUpsolve: req.WeightOfUpsolve,
	}
	if err := h.rankListService.UpdateRankList(rankList); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, rankList)
}

// DeleteRankList обрабатывает запрос на удаление лидерборда
func (h *RankListHandler) DeleteRankList(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	if err := h.rankListService.DeleteRankList(rankListID); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rank list deleted"})
}

// AttachEventRequest представляет запрос на привязку события
type AttachEventRequest struct {
	EventID uint    `json:"event_id" binding:"required"`
	Weight  float64 `json:"weight" binding:"omitempty,min=0"`
}

// AttachEvent привязывает событие к лидерборду
func (h *RankListHandler) AttachEvent(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	var req AttachEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Weight == 0 {
		req.Weight = 1
	}

	if err := h.rankListService.AttachEvent(rankListID, req.EventID, req.Weight); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Event attached"})
}

// DetachEvent отвязывает событие от лидерборда
func (h *RankListHandler) DetachEvent(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")
	eventID := middleware.GetUintParam(c, "eventID")

	if err := h.rankListService.DetachEvent(rankListID, eventID); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event detached"})
}

// GetEventLinks возвращает привязки событий лидерборда
func (h *RankListHandler) GetEventLinks(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	links, err := h.rankListService.GetEventLinks(rankListID)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventLinkDTOs(links))
}

// Subscribe подписывает аутентифицированного пользователя на лидерборд
func (h *RankListHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	rankListID := middleware.GetUintParam(c, "rankListID")

	if err := h.rankListService.Subscribe(rankListID, userID); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
}

// Unsubscribe отписывает аутентифицированного пользователя от лидерборда
func (h *RankListHandler) Unsubscribe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	rankListID := middleware.GetUintParam(c, "rankListID")

	if err := h.rankListService.Unsubscribe(rankListID, userID); err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

// GetStandings возвращает страницу таблицы лидерборда
func (h *RankListHandler) GetStandings(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")
	page, perPage, offset := pagination(c, 50)

	rows, total, err := h.rankListService.GetStandings(rankListID, perPage, offset)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedStandingsResponse(rankListID, rows, total, page, perPage, offset))
}

// ExportStandings экспортирует полную таблицу лидерборда в CSV или XLSX
// (параметр format, по умолчанию csv)
func (h *RankListHandler) ExportStandings(c *gin.Context) {
	rankListID := middleware.GetUintParam(c, "rankListID")

	rankList, err := h.rankListService.GetRankListByID(rankListID)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	// Полная выгрузка без пагинации
	rows, _, err := h.rankListService.GetStandings(rankListID, 200, 0)
	if err != nil {
		handleServiceError(c, "RankListHandler", err)
		return
	}

	filename := fmt.Sprintf("ranklist_%d", rankList.ID)
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, rankList, rows, filename)
	default:
		h.exportCSV(c, rows, filename)
	}
}

func (h *RankListHandler) exportCSV(c *gin.Context, rows []entity.RankListUser, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write([]string{"Место", "Пользователь", "Очки"})
	for i, row := range rows {
		username := ""
		if row.User != nil {
			username = row.User.Username
		}
		_ = writer.Write([]string{
			strconv.Itoa(i + 1),
			username,
			strconv.FormatFloat(row.Score, 'f', 2, 64),
		})
	}
}

// exportXLSX экспортирует таблицу в Excel с использованием StreamWriter
func (h *RankListHandler) exportXLSX(c *gin.Context, rankList *entity.RankList, rows []entity.RankListUser, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Таблица"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RankListHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Место", "Пользователь", "ФИО", "Очки"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RankListHandler] Ошибка записи заголовков: %v", err)
	}

	for i, row := range rows {
		username, fullName := "", ""
		if row.User != nil {
			username = row.User.Username
			fullName = row.User.FullName
		}
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{i + 1, username, fullName, row.Score}
		if err := sw.SetRow(cell, values); err != nil {
			log.Printf("[RankListHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[RankListHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RankListHandler] Ошибка записи файла в ответ: %v", err)
	}
}
