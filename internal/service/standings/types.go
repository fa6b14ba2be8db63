// Package standings содержит чистые функции нормализации результатов
// контестов: из сырых данных судьи в кортежи {solve, upsolve, isPresent}.
// Здесь нет ни HTTP, ни БД — только доменная арифметика, полностью
// покрываемая юнит-тестами.
package standings

// Window — окно контеста в секундах. Для Codeforces/AtCoder границы — epoch,
// для VJudge — смещения относительно начала контеста. Обе трактовки работают,
// пока времена посылок выражены в той же шкале.
type Window struct {
	Start int64
	End   int64
}

// Contains сообщает, попадает ли момент t в окно (границы включительно)
func (w Window) Contains(t int64) bool {
	return t >= w.Start && t <= w.End
}

// After сообщает, лежит ли момент t после закрытия окна
func (w Window) After(t int64) bool {
	return t > w.End
}

// Submission — нормализованная посылка: задача, момент, успешность вердикта
type Submission struct {
	ProblemID string
	At        int64
	Accepted  bool
}

// Result — нормализованный результат одного пользователя на одном событии
type Result struct {
	UserID uint
	Handle string

	SolveCount   int
	UpsolveCount int
	IsPresent    bool

	// Error — аннотация сбоя при получении данных этого пользователя.
	// Заполненная ошибка всегда сопровождается нулевыми счётчиками;
	// сбой одного пользователя не прерывает пакет.
	Error string
}
