package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DigestRun is one row of the run log.
type DigestRun struct {
	ID           string
	SubscriberID string
	TraceID      string
	Status       string
	SourceCount  int
	EventCount   int
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// RecordRun appends a run to the log and returns its id.
func (db *DB) RecordRun(ctx context.Context, run DigestRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO digest_runs (id, subscriber_id, trace_id, status, source_count, event_count, error,
			started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		toUUID(id), toUUID(run.SubscriberID), run.TraceID, run.Status, run.SourceCount, run.EventCount,
		toText(run.Error), toTimestamptz(run.StartedAt), toTimestamptz(run.FinishedAt),
	)
	if err != nil {
		return "", fmt.Errorf("record digest run: %w", err)
	}

	return id, nil
}

// RecentRuns returns the latest runs of a subscriber, newest first.
func (db *DB) RecentRuns(ctx context.Context, subscriberID string, limit int) ([]DigestRun, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, trace_id, status, source_count, event_count, COALESCE(error, ''), started_at, finished_at
		FROM digest_runs
		WHERE subscriber_id = $1
		ORDER BY started_at DESC
		LIMIT $2`, toUUID(subscriberID), limit)
	if err != nil {
		return nil, fmt.Errorf("list digest runs: %w", err)
	}
	defer rows.Close()

	var runs []DigestRun

	for rows.Next() {
		run := DigestRun{SubscriberID: subscriberID}

		var (
			id                uuid.UUID
			started, finished time.Time
		)

		if err := rows.Scan(&id, &run.TraceID, &run.Status, &run.SourceCount, &run.EventCount, &run.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan digest run: %w", err)
		}

		run.ID = id.String()
		run.StartedAt = started.UTC()
		run.FinishedAt = finished.UTC()
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest runs: %w", err)
	}

	return runs, nil
}
