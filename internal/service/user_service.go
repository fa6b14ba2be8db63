package service

import (
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/domain/repository"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

// UserService предоставляет методы для работы с пользователями:
// регистрация, вход, справочник участников и привязка хэндлов судей
type UserService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, jwtSecret string, jwtExpirationHrs int) *UserService {
	return &UserService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: time.Duration(jwtExpirationHrs) * time.Hour,
	}
}

// TokenClaims — полезная нагрузка JWT
type TokenClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Register создает нового пользователя. Пароль хешируется хуком BeforeSave.
func (s *UserService) Register(user *entity.User) error {
	if user.Username == "" || user.Email == "" || len(user.Password) < 6 {
		return fmt.Errorf("%w: username, email and password (6+ chars) are required", apperrors.ErrValidation)
	}
	if err := s.userRepo.Create(user); err != nil {
		return err
	}
	log.Printf("[UserService] Зарегистрирован пользователь #%d (%s)", user.ID, user.Username)
	return nil
}

// Login проверяет учётные данные и возвращает подписанный JWT
func (s *UserService) Login(email, password string) (string, *entity.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	if !user.CheckPassword(password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

func (s *UserService) issueToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims
func (s *UserService) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// GetUserByID возвращает пользователя по ID
func (s *UserService) GetUserByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// ListUsers возвращает страницу справочника участников
func (s *UserService) ListUsers(limit, offset int) ([]entity.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.userRepo.List(limit, offset)
}

// UpdateHandles привязывает хэндлы внешних судей к пользователю
func (s *UserService) UpdateHandles(userID uint, codeforces, atcoder, vjudge string) error {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return err
	}
	return s.userRepo.UpdateHandles(userID, codeforces, atcoder, vjudge)
}
