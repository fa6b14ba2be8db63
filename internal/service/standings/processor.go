package standings

import (
	"strings"

	"github.com/yourusername/cphub-api/internal/judge"
)

// CountSubmissions сворачивает посылки пользователя в счётчики по окну.
//
// Правила:
//   - solve: успешный вердикт внутри окна; задача учитывается один раз,
//     сколько бы успешных посылок по ней ни было;
//   - upsolve: успешный вердикт после окна по задаче, НЕ решённой в окне
//     (повторная успешная посылка решённой задачи ничего не добавляет);
//   - isPresent: хотя бы одна посылка (с любым вердиктом) внутри окна.
func CountSubmissions(w Window, subs []Submission) Result {
	solved := make(map[string]struct{})
	upsolved := make(map[string]struct{})
	present := false

	// Сначала собираем решённое в окне: порядок посылок на входе не гарантирован,
	// а классификация "после окна" зависит от полного множества решённого в окне.
	for _, s := range subs {
		if w.Contains(s.At) {
			present = true
			if s.Accepted {
				solved[s.ProblemID] = struct{}{}
			}
		}
	}

	for _, s := range subs {
		if !s.Accepted || !w.After(s.At) {
			continue
		}
		if _, ok := solved[s.ProblemID]; ok {
			continue
		}
		upsolved[s.ProblemID] = struct{}{}
	}

	return Result{
		SolveCount:   len(solved),
		UpsolveCount: len(upsolved),
		IsPresent:    present,
	}
}

// CountCodeforcesRows сворачивает ряды standings Codeforces одного участника.
//
// CONTESTANT и OUT_OF_COMPETITION ряды считаются участием в контесте:
// задачи с points>0 — решения в окне, любая активность (points или
// неудачные попытки) — присутствие. PRACTICE-ряд участвует ТОЛЬКО в
// детектировании дорешивания. Участник без обоих рядов полностью
// отсутствовал: нулевые счётчики, isPresent=false.
func CountCodeforcesRows(contestRow, practiceRow *judge.CFRanklistRow) Result {
	var res Result
	solvedIdx := make(map[int]struct{})

	if contestRow != nil {
		for i, pr := range contestRow.ProblemResults {
			if pr.Points > 0 {
				solvedIdx[i] = struct{}{}
				res.SolveCount++
			}
			if pr.Points > 0 || pr.RejectedAttemptCount > 0 {
				res.IsPresent = true
			}
		}
	}

	if practiceRow != nil {
		for i, pr := range practiceRow.ProblemResults {
			if pr.Points <= 0 {
				continue
			}
			if _, ok := solvedIdx[i]; ok {
				// Решена в контесте и пересдана после — двойного счёта нет
				continue
			}
			res.UpsolveCount++
		}
	}

	return res
}

// IsContestParticipation сообщает, считается ли ряд участием в контесте
func IsContestParticipation(participantType string) bool {
	return participantType == judge.CFParticipantContestant ||
		participantType == judge.CFParticipantOutOfCompetiton
}

// SplitCodeforcesRows раскладывает ряды standings по хэндлам:
// отдельно контестные ряды, отдельно PRACTICE. Хэндлы сравниваются
// без учёта регистра — Codeforces сохраняет авторский регистр.
func SplitCodeforcesRows(rows []judge.CFRanklistRow) (contest, practice map[string]*judge.CFRanklistRow) {
	contest = make(map[string]*judge.CFRanklistRow)
	practice = make(map[string]*judge.CFRanklistRow)
	for i := range rows {
		row := &rows[i]
		for _, member := range row.Party.Members {
			key := strings.ToLower(member.Handle)
			switch {
			case IsContestParticipation(row.Party.ParticipantType):
				contest[key] = row
			case row.Party.ParticipantType == judge.CFParticipantPractice:
				practice[key] = row
			}
		}
	}
	return contest, practice
}

// ApplyStrictAttendance накладывает политику строгой посещаемости.
//
// При strict-посещаемости присутствие определяется записью Attendance,
// а не посылками. У неотмеченного пользователя решения в окне
// ПЕРЕКЛАССИФИЦИРУЮТСЯ в дорешивание (переносятся, не теряются),
// solveCount обнуляется.
func ApplyStrictAttendance(res Result, attended bool) Result {
	if attended {
		res.IsPresent = true
		return res
	}
	res.UpsolveCount += res.SolveCount
	res.SolveCount = 0
	res.IsPresent = false
	return res
}

// FromAtcoderSubmissions переводит посылки AtCoder в нормализованный вид,
// оставляя только посылки запрошенного контеста
func FromAtcoderSubmissions(contestID string, subs []judge.ACSubmission) []Submission {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if s.ContestID != contestID {
			continue
		}
		out = append(out, Submission{
			ProblemID: s.ProblemID,
			At:        s.EpochSecond,
			Accepted:  s.Result == "AC",
		})
	}
	return out
}
