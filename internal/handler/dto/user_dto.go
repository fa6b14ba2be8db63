package dto

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// UserResponse представляет публичный профиль пользователя
type UserResponse struct {
	ID               uint   `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email,omitempty"` // Только в собственном профиле
	FullName         string `json:"full_name"`
	CodeforcesHandle string `json:"codeforces_handle"`
	AtcoderHandle    string `json:"atcoder_handle"`
	VjudgeHandle     string `json:"vjudge_handle"`
}

// NewUserResponse собирает профиль; own=true добавляет приватные поля
func NewUserResponse(user *entity.User, own bool) *UserResponse {
	resp := &UserResponse{
		ID:               user.ID,
		Username:         user.Username,
		FullName:         user.FullName,
		CodeforcesHandle: user.CodeforcesHandle,
		AtcoderHandle:    user.AtcoderHandle,
		VjudgeHandle:     user.VjudgeHandle,
	}
	if own {
		resp.Email = user.Email
	}
	return resp
}

// PaginatedUsersResponse представляет страницу справочника участников
type PaginatedUsersResponse struct {
	Users   []*UserResponse `json:"users"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// NewPaginatedUsersResponse собирает страницу справочника
func NewPaginatedUsersResponse(users []entity.User, total int64, page, perPage int) *PaginatedUsersResponse {
	out := make([]*UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i], false))
	}
	return &PaginatedUsersResponse{Users: out, Total: total, Page: page, PerPage: perPage}
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}
