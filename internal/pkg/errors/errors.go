package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния
	// (например, повторная привязка события к тому же лидерборду).
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки слоя персистентности при массовой замене solve-статистики
var (
	// ErrPersistenceTimeout: транзакция пакетной записи не уложилась в лимит.
	ErrPersistenceTimeout = errors.New("persistence transaction timed out")

	// ErrPersistencePartialFailure: часть пакетов записана, часть — нет.
	// Записанные пакеты остаются применёнными; вызывающая сторона должна
	// повторить синхронизацию целиком.
	ErrPersistencePartialFailure = errors.New("bulk write partially failed")
)
