package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const (
	winTrophies  = 30
	lossTrophies = -10
	winCoins     = 50
	firstWin     = "first_win"
	tagAttempts  = 20
)

// Medal represents metadata for an achievement.
type Medal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var ErrPlayerNotFound = errors.New("player not found")

// Profile is the public progress of one account.
type Profile struct {
	ID       string   `json:"id"`
	Nickname string   `json:"nickname"`
	Tag      int      `json:"tag"`
	Trophies int      `json:"trophies"`
	Coins    int      `json:"coins"`
	Medals   []string `json:"medals"`
}

// Store persists player progress (trophies, coins, medals) in Postgres.
// Matches themselves are never stored.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	begin  func(ctx context.Context) (txn, error)
	medals map[string]Medal
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// txn is the part of *sql.Tx that RecordResult drives.
type txn interface {
	execer
	Commit() error
	Rollback() error
}

// NewStore accepts an existing DB handle. An empty medalsPath loads no medals.
func NewStore(db *sql.DB, medalsPath string) (*Store, error) {
	s := &Store{
		db: db,
		begin: func(ctx context.Context) (txn, error) {
			return db.BeginTx(ctx, nil)
		},
		medals: make(map[string]Medal),
	}
	if medalsPath != "" {
		if err := s.loadMedals(medalsPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewStoreFromDB builds the store from a connection string (e.g. os.Getenv("DATABASE_URL")).
func NewStoreFromDB(connStr, medalsPath string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db, medalsPath)
}

func (s *Store) Close() error { return s.db.Close() }

// FindUser resolves a nickname and tag to a user id.
func (s *Store) FindUser(ctx context.Context, nickname string, tag int) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE nickname = $1 AND tag = $2`, nickname, tag).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s#%d", ErrPlayerNotFound, nickname, tag)
	}
	return userID, err
}

// CreateUser retries random tags until the (nickname, tag) pair is free.
func (s *Store) CreateUser(ctx context.Context, nickname string) (int, string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < tagAttempts; i++ {
		tag := rng.Intn(9999) + 1
		userID := "u_" + uuid.NewString()

		var insertedID string
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO users (id, nickname, tag)
			VALUES ($1, $2, $3)
			ON CONFLICT (nickname, tag) DO NOTHING
			RETURNING id
		`, userID, nickname, tag).Scan(&insertedID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, "", err
		}
		return tag, insertedID, nil
	}
	return 0, "", fmt.Errorf("no free tag for %s after %d attempts", nickname, tagAttempts)
}

// Profile loads an account with its medal ids.
func (s *Store) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nickname, tag, trophies, coins
		FROM users
		WHERE id = $1
	`, userID).Scan(&p.ID, &p.Nickname, &p.Tag, &p.Trophies, &p.Coins)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, userID)
	}
	if err != nil {
		return Profile{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT medal_id FROM user_medals WHERE user_id = $1 ORDER BY medal_id`, userID)
	if err != nil {
		return Profile{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Profile{}, err
		}
		p.Medals = append(p.Medals, id)
	}
	return p, rows.Err()
}

// loadMedals keeps medal metadata in memory and mirrors it into the DB table.
func (s *Store) loadMedals(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var list []Medal
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("parse medals %s: %w", path, err)
	}
	for _, m := range list {
		s.medals[m.ID] = m
	}

	// Best-effort upsert into DB to keep table in sync with JSON source.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, m := range list {
		_, _ = s.db.ExecContext(ctx, `
			INSERT INTO medals (id, name, description, icon)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    description = EXCLUDED.description,
			    icon = EXCLUDED.icon
		`, m.ID, m.Name, m.Description, m.Icon)
	}
	return nil
}

// RecordResult rewards the signed-in winners and charges the losers of one match
// in a single transaction. Unknown user ids are skipped.
func (s *Store) RecordResult(ctx context.Context, winners, losers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range winners {
		if err := adjustTrophies(ctx, tx, id, winTrophies); err != nil {
			return fmt.Errorf("trophies for %s: %w", id, err)
		}
		if err := adjustCoins(ctx, tx, id, winCoins); err != nil {
			return fmt.Errorf("coins for %s: %w", id, err)
		}
		if err := s.awardMedals(ctx, tx, id, firstWin); err != nil {
			return err
		}
	}
	for _, id := range losers {
		if err := adjustTrophies(ctx, tx, id, lossTrophies); err != nil {
			return fmt.Errorf("trophies for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// awardMedals inserts medals for a user, ignoring unknown medals and duplicates.
func (s *Store) awardMedals(ctx context.Context, ex execer, userID string, medalIDs ...string) error {
	for _, id := range medalIDs {
		if _, ok := s.medals[id]; !ok {
			continue
		}
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO user_medals (user_id, medal_id)
			SELECT id, $2 FROM users WHERE id = $1
			ON CONFLICT (user_id, medal_id) DO NOTHING
		`, userID, id); err != nil {
			return fmt.Errorf("insert medal %s: %w", id, err)
		}
	}
	return nil
}

// adjustTrophies adds/subtracts and clamps to zero.
func adjustTrophies(ctx context.Context, ex execer, userID string, delta int) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE users
		SET trophies = GREATEST(0, trophies + $1),
		    updated_at = NOW()
		WHERE id = $2
	`, delta, userID)
	return err
}

func adjustCoins(ctx context.Context, ex execer, userID string, amount int) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE users SET coins = coins + $1 WHERE id = $2
	`, amount, userID)
	return err
}

// Recorder adapts the store to a fire-and-forget result callback.
func (s *Store) Recorder(timeout time.Duration) func(matchID string, winners, losers []string) {
	return func(matchID string, winners, losers []string) {
		if len(winners) == 0 && len(losers) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.RecordResult(ctx, winners, losers); err != nil {
			log.Printf("[DATA] record result of %s: %v", matchID, err)
			return
		}
		log.Printf("[DATA] recorded result of %s: %d winners, %d losers", matchID, len(winners), len(losers))
	}
}
