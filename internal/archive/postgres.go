package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRepository stores finished games in the arena_games table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save inserts the finished game. A game id that already exists is left
// untouched and reported as ErrDuplicateGame.
func (r *PostgresRepository) Save(ctx context.Context, g ArenaGame) error {
	movesUCI, _ := json.Marshal(g.MovesUCI)
	movesSAN, _ := json.Marshal(g.MovesSAN)

	q := `INSERT INTO arena_games (
	    game_id, white_model, black_model,
	    result, result_method, moves_uci, moves_san, pgn,
	    fallback_count, started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
	  ) ON CONFLICT (game_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, q,
		g.GameID, g.WhiteModel, g.BlackModel,
		g.Result, strings.TrimSpace(g.Method),
		string(movesUCI), string(movesSAN), g.PGN,
		g.Fallbacks, g.StartedAt, g.EndedAt, g.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("archive game %s: %w", g.GameID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrDuplicateGame
	}
	return nil
}

// Recent lists the most recently finished games, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]ArenaGame, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT game_id, white_model, black_model,
	        result, result_method, moves_uci, moves_san, pgn,
	        fallback_count, started_at, ended_at
	      FROM arena_games ORDER BY ended_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent games: %w", err)
	}
	defer rows.Close()

	var out []ArenaGame
	for rows.Next() {
		var g ArenaGame
		var movesUCI, movesSAN string
		if err := rows.Scan(
			&g.GameID, &g.WhiteModel, &g.BlackModel,
			&g.Result, &g.Method, &movesUCI, &movesSAN, &g.PGN,
			&g.Fallbacks, &g.StartedAt, &g.EndedAt,
		); err != nil {
			return nil, fmt.Errorf("scan archived game: %w", err)
		}
		_ = json.Unmarshal([]byte(movesUCI), &g.MovesUCI)
		_ = json.Unmarshal([]byte(movesSAN), &g.MovesSAN)
		out = append(out, g)
	}
	return out, rows.Err()
}
