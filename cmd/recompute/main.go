package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// Оперативный пересчёт кешированных очков лидербордов напрямую в БД.
// Используется, когда синхронизация записала статистику, но пересчёт
// в приложении не удался, либо после ручной правки solve_stats.
func main() {
	var rankListID int
	flag.IntVar(&rankListID, "ranklist", 0, "ID лидерборда (0 = все)")
	flag.Parse()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DATABASE_HOST", "localhost"),
		envOr("DATABASE_PORT", "5432"),
		envOr("DATABASE_USER", "postgres"),
		envOr("DATABASE_PASSWORD", "123456"),
		envOr("DATABASE_NAME", "cphub_db"),
		envOr("DATABASE_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	// Очки каждой подписки — полная перезапись из solve-статистики;
	// формула совпадает с формулой агрегатора в приложении.
	query := `
		UPDATE rank_list_users rlu
		SET score = agg.score, updated_at = now()
		FROM (
			SELECT rlu2.id,
			       COALESCE(SUM(ss.solve_count * erl.weight
			                  + ss.upsolve_count * erl.weight * rl.weight_of_upsolve), 0) AS score
			FROM rank_list_users rlu2
			JOIN rank_lists rl ON rl.id = rlu2.rank_list_id
			LEFT JOIN event_rank_lists erl ON erl.rank_list_id = rlu2.rank_list_id
			LEFT JOIN solve_stats ss ON ss.event_id = erl.event_id AND ss.user_id = rlu2.user_id
			WHERE $1 = 0 OR rlu2.rank_list_id = $1
			GROUP BY rlu2.id
		) agg
		WHERE rlu.id = agg.id`

	result, err := db.Exec(query, rankListID)
	if err != nil {
		log.Fatalf("Не удалось пересчитать очки: %v", err)
	}

	affected, _ := result.RowsAffected()
	fmt.Printf("Пересчитано подписок: %d\n", affected)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
