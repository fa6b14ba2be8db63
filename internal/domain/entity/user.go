package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User представляет участника сообщества
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	FullName string `gorm:"size:100;not null;default:''" json:"full_name"`
	Role     string `gorm:"size:20;not null;default:'user'" json:"-"` // "user", "organizer" или "admin"

	// Хэндлы на внешних судьях. По ним участник сообщества сопоставляется
	// с участником контеста при синхронизации результатов.
	CodeforcesHandle string `gorm:"size:50;not null;default:'';index" json:"codeforces_handle"`
	AtcoderHandle    string `gorm:"size:50;not null;default:''" json:"atcoder_handle"`
	VjudgeHandle     string `gorm:"size:50;not null;default:''" json:"vjudge_handle"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HandleFor возвращает хэндл пользователя для указанной платформы
// (пустая строка, если хэндл не привязан).
func (u *User) HandleFor(platform string) string {
	switch platform {
	case PlatformCodeforces:
		return strings.TrimSpace(u.CodeforcesHandle)
	case PlatformAtcoder:
		return strings.TrimSpace(u.AtcoderHandle)
	case PlatformVjudge:
		return strings.TrimSpace(u.VjudgeHandle)
	}
	return ""
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
