package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-chess-coach/internal/domain"
)

type PostgresArchive struct {
	db *sql.DB
}

// OpenPostgresArchive opens and pings the database behind dsn.
func OpenPostgresArchive(ctx context.Context, dsn string) (*PostgresArchive, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	a := &PostgresArchive{db: db}
	if err := a.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS coach_games (
		id            BIGSERIAL PRIMARY KEY,
		game_id       TEXT NOT NULL,
		instance_id   TEXT NOT NULL UNIQUE,
		human_side    TEXT NOT NULL DEFAULT '',
		result        TEXT NOT NULL DEFAULT '',
		result_method TEXT NOT NULL DEFAULT '',
		result_text   TEXT NOT NULL DEFAULT '',
		moves_uci     JSONB NOT NULL DEFAULT '[]'::jsonb,
		moves_san     JSONB NOT NULL DEFAULT '[]'::jsonb,
		pgn           TEXT NOT NULL DEFAULT '',
		opening_code  TEXT NOT NULL DEFAULT '',
		opening_title TEXT NOT NULL DEFAULT '',
		started_at    TIMESTAMPTZ NOT NULL,
		ended_at      TIMESTAMPTZ NOT NULL,
		duration_ms   BIGINT
	);
	CREATE INDEX IF NOT EXISTS coach_games_game_id_ended_at_idx
		ON coach_games (game_id, ended_at DESC)`

// EnsureSchema creates the coach_games table and its lookup index if missing.
func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure coach_games schema: %w", err)
	}
	return nil
}

func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (a *PostgresArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *PostgresArchive) InsertGame(ctx context.Context, game *domain.FinishedGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil finished game payload")
	}
	movesUCI, err := json.Marshal(game.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(game.MovesSAN)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO coach_games (
			game_id,
			instance_id,
			human_side,
			result,
			result_method,
			result_text,
			moves_uci,
			moves_san,
			pgn,
			opening_code,
			opening_title,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (instance_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = a.db.QueryRowContext(
		ctx,
		query,
		game.GameID,
		game.InstanceID,
		game.HumanSide,
		game.Result,
		game.ResultMethod,
		game.ResultText,
		movesUCI,
		movesSAN,
		game.PGN,
		game.OpeningCode,
		game.OpeningTitle,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert coach game: %w", err)
	}
	return id.Int64, nil
}

func (a *PostgresArchive) RecentGames(ctx context.Context, gameID string, limit int) ([]*domain.FinishedGame, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			id,
			game_id,
			instance_id,
			human_side,
			result,
			result_method,
			result_text,
			moves_uci,
			moves_san,
			pgn,
			opening_code,
			opening_title,
			started_at,
			ended_at,
			duration_ms
		FROM coach_games
		WHERE game_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := a.db.QueryContext(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("select coach games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.FinishedGame, 0, limit)
	for rows.Next() {
		var (
			game         domain.FinishedGame
			movesUCIJSON []byte
			movesSANJSON []byte
			durationMS   sql.NullInt64
		)
		if err := rows.Scan(
			&game.ID,
			&game.GameID,
			&game.InstanceID,
			&game.HumanSide,
			&game.Result,
			&game.ResultMethod,
			&game.ResultText,
			&movesUCIJSON,
			&movesSANJSON,
			&game.PGN,
			&game.OpeningCode,
			&game.OpeningTitle,
			&game.StartedAt,
			&game.EndedAt,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan coach game: %w", err)
		}
		if durationMS.Valid {
			game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
		}
		if err := json.Unmarshal(movesUCIJSON, &game.MovesUCI); err != nil {
			return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
		if err := json.Unmarshal(movesSANJSON, &game.MovesSAN); err != nil {
			return nil, fmt.Errorf("unmarshal moves_san: %w", err)
		}
		games = append(games, &game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coach games: %w", err)
	}
	return games, nil
}
