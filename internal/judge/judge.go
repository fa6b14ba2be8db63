// Package judge содержит клиентов внешних судей (Codeforces, AtCoder, VJudge).
// Все клиенты приводят ошибки к общей таксономии, чтобы вызывающая сторона
// могла различать терминальные и повторяемые сбои.
package judge

import "errors"

// Таксономия ошибок внешних судей.
var (
	// ErrNotFound: контест или пользователь не существует. Терминальная, не повторяется.
	ErrNotFound = errors.New("judge: contest or user not found")

	// ErrAuthRequired: закрытый ресурс, нет или невалидна сессия.
	// Вызывающая сторона должна запросить учётные данные, а не повторять запрос.
	ErrAuthRequired = errors.New("judge: authentication required")

	// ErrTransient: сетевой сбой или 5xx. Повторяется с бэкоффом, затем всплывает.
	ErrTransient = errors.New("judge: transient fetch failure")

	// ErrMalformedResponse: ответ не JSON или не соответствует схеме.
	ErrMalformedResponse = errors.New("judge: malformed response")

	// ErrNoEligibleUsers: после дедупликации и фильтрации пустых хэндлов
	// запрашивать некого.
	ErrNoEligibleUsers = errors.New("judge: no eligible users to query")
)

// IsTerminal сообщает, бессмысленно ли повторять запрос с теми же аргументами
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAuthRequired) ||
		errors.Is(err, ErrNoEligibleUsers)
}
