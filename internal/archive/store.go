package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"werewolves/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS round (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	number INTEGER NOT NULL,
	winner TEXT NOT NULL,
	concluded_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS round_game_id ON round (game_id);
CREATE TABLE IF NOT EXISTS round_player (
	round_id INTEGER NOT NULL,
	player_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	is_alive BOOLEAN NOT NULL,
	PRIMARY KEY (round_id, player_id),
	FOREIGN KEY (round_id) REFERENCES round(id)
);
`

type roundRow struct {
	ID          int64     `db:"id"`
	GameID      string    `db:"game_id"`
	Number      int       `db:"number"`
	Winner      string    `db:"winner"`
	ConcludedAt time.Time `db:"concluded_at"`
}

type playerRow struct {
	RoundID  int64  `db:"round_id"`
	PlayerID int    `db:"player_id"`
	Name     string `db:"name"`
	Role     string `db:"role"`
	IsAlive  bool   `db:"is_alive"`
}

// Store keeps concluded rounds in a SQL database
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at dsn and creates the schema
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	// sqlite serializes writers; one connection also keeps :memory: databases whole
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRound stores a concluded round and its roster
func (s *Store) RecordRound(ctx context.Context, summary domain.RoundSummary) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx,
		`INSERT INTO round (game_id, number, winner, concluded_at)
		VALUES (:game_id, :number, :winner, :concluded_at)`,
		roundRow{
			GameID:      summary.GameID,
			Number:      summary.Round,
			Winner:      string(summary.Winner),
			ConcludedAt: summary.ConcludedAt.UTC(),
		})
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	roundID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("round id: %w", err)
	}

	for _, p := range summary.Players {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO round_player (round_id, player_id, name, role, is_alive)
			VALUES (:round_id, :player_id, :name, :role, :is_alive)`,
			playerRow{
				RoundID:  roundID,
				PlayerID: p.ID,
				Name:     p.Name,
				Role:     string(p.Role),
				IsAlive:  p.Alive,
			})
		if err != nil {
			return fmt.Errorf("insert player %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// ListRounds returns the archived rounds of a game, oldest first
func (s *Store) ListRounds(ctx context.Context, gameID string) ([]domain.RoundSummary, error) {
	var rounds []roundRow
	err := s.db.SelectContext(ctx, &rounds,
		`SELECT id, game_id, number, winner, concluded_at
		FROM round WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("select rounds: %w", err)
	}

	summaries := make([]domain.RoundSummary, 0, len(rounds))
	for _, r := range rounds {
		var players []playerRow
		err := s.db.SelectContext(ctx, &players,
			`SELECT round_id, player_id, name, role, is_alive
			FROM round_player WHERE round_id = ? ORDER BY player_id`, r.ID)
		if err != nil {
			return nil, fmt.Errorf("select players of round %d: %w", r.ID, err)
		}

		summary := domain.RoundSummary{
			GameID:      r.GameID,
			Round:       r.Number,
			Winner:      domain.Team(r.Winner),
			Players:     make([]domain.PlayerSummary, 0, len(players)),
			ConcludedAt: r.ConcludedAt,
		}
		for _, p := range players {
			summary.Players = append(summary.Players, domain.PlayerSummary{
				ID:    p.PlayerID,
				Name:  p.Name,
				Role:  domain.Role(p.Role),
				Alive: p.IsAlive,
			})
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}
