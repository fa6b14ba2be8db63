package dto

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// StandingRowDTO представляет одну строку таблицы лидерборда
type StandingRowDTO struct {
	Rank     int     `json:"rank"`     // Место с учётом пагинации
	UserID   uint    `json:"user_id"`  // ID пользователя
	Username string  `json:"username"` // Имя пользователя
	FullName string  `json:"full_name"`
	Score    float64 `json:"score"` // Кешированные очки
}

// PaginatedStandingsResponse представляет пагинированный ответ таблицы лидерборда
type PaginatedStandingsResponse struct {
	RankListID uint              `json:"rank_list_id"`
	Rows       []*StandingRowDTO `json:"rows"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
}

// NewPaginatedStandingsResponse собирает ответ из подписок с предзагруженными
// пользователями. offset нужен для сквозной нумерации мест между страницами.
func NewPaginatedStandingsResponse(rankListID uint, rows []entity.RankListUser, total int64, page, perPage, offset int) *PaginatedStandingsResponse {
	out := make([]*StandingRowDTO, 0, len(rows))
	for i, row := range rows {
		dto := &StandingRowDTO{
			Rank:   offset + i + 1,
			UserID: row.UserID,
			Score:  row.Score,
		}
		if row.User != nil {
			dto.Username = row.User.Username
			dto.FullName = row.User.FullName
		}
		out = append(out, dto)
	}
	return &PaginatedStandingsResponse{
		RankListID: rankListID,
		Rows:       out,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
	}
}

// EventLinkDTO представляет привязку события к лидерборду
type EventLinkDTO struct {
	EventID uint    `json:"event_id"`
	Title   string  `json:"title,omitempty"`
	Weight  float64 `json:"weight"`
}

// NewEventLinkDTOs собирает список привязок с заголовками событий
func NewEventLinkDTOs(links []entity.EventRankList) []*EventLinkDTO {
	out := make([]*EventLinkDTO, 0, len(links))
	for _, link := range links {
		dto := &EventLinkDTO{EventID: link.EventID, Weight: link.Weight}
		if link.Event != nil {
			dto.Title = link.Event.Title
		}
		out = append(out, dto)
	}
	return out
}
