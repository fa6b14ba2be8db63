package repository

import (
	"time"
)

// CacheRepository определяет методы кеша с TTL.
// Клиенты судей кешируют здесь редко меняющиеся справочники
// (например, список контестов AtCoder) по ключу "judge:<платформа>:<ресурс>".
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) (bool, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
}
