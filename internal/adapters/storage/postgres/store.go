// Package postgres stores sessions in PostgreSQL through gorm. Every write of a
// session aggregate is one transaction guarded by the row version.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Bingo/internal/core"
	"github.com/dkeye/Bingo/internal/domain"
)

const uniqueViolation = "23505"

type Store struct {
	db *gorm.DB
}

var _ core.SessionStore = (*Store)(nil)

// Open connects to dsn, routes gorm's SQL log through zerolog and migrates the schema.
func Open(dsn string, slowThreshold time.Duration) (*Store, error) {
	sqlLog := log.Logger.With().Str("module", "storage.postgres").Logger()
	gormLogger := logger.New(&sqlLog, logger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return NewStore(db)
}

// NewStore wraps an open connection and migrates the schema.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&sessionRow{}, &playerRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", domain.ErrCollaboratorUnavailable, err)
	}
	log.Info().Str("module", "storage.postgres").Msg("schema migrated")
	return &Store{db: db}, nil
}

func (st *Store) Close() error {
	sqlDB, err := st.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (st *Store) Insert(ctx context.Context, s *domain.Session) error {
	sr, players, err := toRows(s)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	sr.Version = 1
	err = st.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sr).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrCodeTaken
			}
			return err
		}
		if len(players) > 0 {
			return tx.Create(&players).Error
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}
	s.Version = 1
	return nil
}

func (st *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	db := st.db.WithContext(ctx)
	var sr sessionRow
	if err := db.Where("id = ?", sessionID).Take(&sr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %w", domain.ErrNotFound)
		}
		return nil, classify(err)
	}
	var rows []playerRow
	if err := db.Where("session_id = ?", sessionID).Order("position").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	s, err := fromRows(sr, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	return s, nil
}

func (st *Store) LookupCode(ctx context.Context, code string) (string, error) {
	var sr sessionRow
	err := st.db.WithContext(ctx).Select("id").Where("code = ?", code).Take(&sr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", domain.ErrRoomNotFound
	}
	if err != nil {
		return "", classify(err)
	}
	return sr.ID, nil
}

func (st *Store) LookupToken(ctx context.Context, token string) (domain.Seat, error) {
	var pr playerRow
	err := st.db.WithContext(ctx).Select("id", "session_id").Where("token = ?", token).Take(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Seat{}, fmt.Errorf("token %w", domain.ErrNotFound)
	}
	if err != nil {
		return domain.Seat{}, classify(err)
	}
	return domain.Seat{SessionID: pr.SessionID, PlayerID: pr.ID}, nil
}

// CompareAndSwap bumps the session row only if it still carries expected, then
// rewrites the player rows in the same transaction.
func (st *Store) CompareAndSwap(ctx context.Context, s *domain.Session, expected uint64) error {
	sr, players, err := toRows(s)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
	}
	err = st.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sessionRow{}).
			Where("id = ? AND version = ?", s.ID, expected).
			Updates(map[string]any{
				"name":           sr.Name,
				"host_id":        sr.HostID,
				"status":         sr.Status,
				"called_numbers": sr.CalledNumbers,
				"current_number": sr.CurrentNumber,
				"winner_id":      sr.WinnerID,
				"winner_name":    sr.WinnerName,
				"win_pattern":    sr.WinPattern,
				"round":          sr.Round,
				"version":        expected + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}

		ids := make([]string, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.ID)
		}
		del := tx.Where("session_id = ?", s.ID)
		if len(ids) > 0 {
			del = del.Where("id NOT IN ?", ids)
		}
		if err := del.Delete(&playerRow{}).Error; err != nil {
			return err
		}
		if len(players) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "is_host", "wins", "card", "connected", "position"}),
		}).Create(&players).Error
	})
	if err != nil {
		return classify(err)
	}
	s.Version = expected + 1
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// classify keeps domain and context errors and marks the rest as a store failure.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrCodeTaken):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
	}
}

// zerolog.Logger satisfies gorm's logger.Writer.
var _ logger.Writer = (*zerolog.Logger)(nil)
