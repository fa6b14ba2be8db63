package repository

import (
	"github.com/yourusername/cphub-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByIDs(ids []uint) ([]entity.User, error)
	List(limit, offset int) ([]entity.User, int64, error)
	UpdateHandles(userID uint, codeforces, atcoder, vjudge string) error
}
