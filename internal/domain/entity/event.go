package entity

import (
	"fmt"
	"regexp"
	"time"
)

// Платформы внешних судей, с которых синхронизируются результаты.
const (
	PlatformCodeforces = "codeforces"
	PlatformAtcoder    = "atcoder"
	PlatformVjudge     = "vjudge"
)

// Типы событий
const (
	EventTypeContest = "contest"
	EventTypeClass   = "class"
	EventTypeOther   = "other"
)

// Event представляет событие сообщества: контест, занятие или прочее.
// Временное окно [StartTime, EndTime] определяет, какие посылки считаются
// решениями "в контесте", а какие — дорешиванием.
type Event struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:150;not null" json:"title"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	Type        string `gorm:"size:20;not null;default:'contest';index" json:"type"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	// EventLink — ссылка на контест на внешней платформе. Из неё выводится
	// платформа и идентификатор контеста (см. ParseContestRef).
	EventLink string `gorm:"size:255;not null;default:''" json:"event_link"`

	// OpenForAttendance: можно ли сейчас отмечаться на событии.
	OpenForAttendance bool `gorm:"not null;default:false" json:"open_for_attendance"`

	// StrictAttendance: присутствие определяется записью Attendance,
	// а не фактом посылки в окне контеста (только для VJudge-синхронизации).
	StrictAttendance bool `gorm:"not null;default:false" json:"strict_attendance"`

	// AttendancePassword — пароль, который называют на событии для отметки.
	AttendancePassword string `gorm:"size:50;not null;default:''" json:"-"`

	RankLists []EventRankList `gorm:"foreignKey:EventID" json:"rank_lists,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Event) TableName() string {
	return "events"
}

// Duration возвращает длительность события в секундах
func (e *Event) Duration() int64 {
	return int64(e.EndTime.Sub(e.StartTime).Seconds())
}

// ContestRef — платформа и идентификатор контеста, выведенные из EventLink
type ContestRef struct {
	Platform  string
	ContestID string
}

var contestLinkPatterns = []struct {
	platform string
	re       *regexp.Regexp
}{
	{PlatformCodeforces, regexp.MustCompile(`codeforces\.com/(?:contest|gym)s?/(\d+)`)},
	{PlatformAtcoder, regexp.MustCompile(`atcoder\.jp/contests/([a-zA-Z0-9_-]+)`)},
	{PlatformVjudge, regexp.MustCompile(`vjudge\.net/contest/(\d+)`)},
	// Общий вид "contests/1234" трактуем как Codeforces (исторический формат ссылок)
	{PlatformCodeforces, regexp.MustCompile(`contests?/(\d+)`)},
}

// ParseContestRef выводит платформу и идентификатор контеста из ссылки события.
// Возвращает ошибку, если ссылка не распознана ни одним из известных форматов.
func ParseContestRef(link string) (ContestRef, error) {
	for _, p := range contestLinkPatterns {
		if m := p.re.FindStringSubmatch(link); m != nil {
			return ContestRef{Platform: p.platform, ContestID: m[1]}, nil
		}
	}
	return ContestRef{}, fmt.Errorf("cannot derive contest id from event link %q", link)
}
