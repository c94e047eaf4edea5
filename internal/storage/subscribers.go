package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
)

const subscriberColumns = `id, name, channel, telegram_chat_id, email, artists, genres, venues,
	schedule_day, schedule_time, event_window, active, last_sent_at`

type subscriberRow struct {
	ID             pgtype.UUID
	Name           string
	Channel        string
	TelegramChatID pgtype.Int8
	Email          pgtype.Text
	Artists        []string
	Genres         []string
	Venues         []string
	ScheduleDay    string
	ScheduleTime   string
	EventWindow    pgtype.Text
	Active         bool
	LastSentAt     pgtype.Timestamptz
}

func (r *subscriberRow) scanTargets() []any {
	return []any{
		&r.ID, &r.Name, &r.Channel, &r.TelegramChatID, &r.Email, &r.Artists, &r.Genres, &r.Venues,
		&r.ScheduleDay, &r.ScheduleTime, &r.EventWindow, &r.Active, &r.LastSentAt,
	}
}

func (r subscriberRow) toDomain() domain.SubscriberProfile {
	eventWindow := strings.TrimSpace(r.EventWindow.String)
	if !r.EventWindow.Valid || eventWindow == "" {
		eventWindow = DefaultEventWindow
	}

	return domain.SubscriberProfile{
		ID:             fromUUID(r.ID),
		Name:           r.Name,
		Channel:        r.Channel,
		TelegramChatID: r.TelegramChatID.Int64,
		Email:          r.Email.String,
		Artists:        nonNil(r.Artists),
		Genres:         nonNil(r.Genres),
		Venues:         nonNil(r.Venues),
		Schedule: domain.Schedule{
			DayOfWeek:   r.ScheduleDay,
			Time:        r.ScheduleTime,
			EventWindow: eventWindow,
		},
		Active:     r.Active,
		LastSentAt: fromTimestamptz(r.LastSentAt),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}

// ListActive returns every active subscriber ordered by creation time.
func (db *DB) ListActive(ctx context.Context) ([]domain.SubscriberProfile, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE active ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list active subscribers: %w", err)
	}
	defer rows.Close()

	var profiles []domain.SubscriberProfile

	for rows.Next() {
		var row subscriberRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}

		profiles = append(profiles, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}

	return profiles, nil
}

// GetSubscriber loads one subscriber regardless of its active flag.
func (db *DB) GetSubscriber(ctx context.Context, id string) (domain.SubscriberProfile, error) {
	uid := toUUID(id)
	if !uid.Valid {
		return domain.SubscriberProfile{}, fmt.Errorf("subscriber id %q: %w", id, apperrors.ErrInvalidInput)
	}

	var row subscriberRow

	err := db.Pool.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, uid).Scan(row.scanTargets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SubscriberProfile{}, fmt.Errorf("subscriber %s: %w", id, apperrors.ErrNotFound)
	}

	if err != nil {
		return domain.SubscriberProfile{}, fmt.Errorf("get subscriber: %w", err)
	}

	return row.toDomain(), nil
}

// CreateSubscriber inserts a profile and returns its id. A missing id is generated.
func (db *DB) CreateSubscriber(ctx context.Context, p domain.SubscriberProfile) (string, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	uid := toUUID(id)
	if !uid.Valid {
		return "", fmt.Errorf("subscriber id %q: %w", id, apperrors.ErrInvalidInput)
	}

	chatID := pgtype.Int8{Int64: p.TelegramChatID, Valid: p.TelegramChatID != 0}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO subscribers (id, name, channel, telegram_chat_id, email, artists, genres, venues,
			schedule_day, schedule_time, event_window, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uid, p.Name, p.Channel, chatID, toText(p.Email), nonNil(p.Artists), nonNil(p.Genres), nonNil(p.Venues),
		p.Schedule.DayOfWeek, p.Schedule.Time, toText(p.Schedule.EventWindow), p.Active,
	)
	if err != nil {
		return "", fmt.Errorf("create subscriber: %w", err)
	}

	return id, nil
}

// MarkSent records the time the subscriber's scheduled digest was handled.
func (db *DB) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE subscribers SET last_sent_at = $2, updated_at = now() WHERE id = $1`,
		toUUID(id), toTimestamptz(sentAt))
	if err != nil {
		return fmt.Errorf("mark subscriber sent: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriber %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}
