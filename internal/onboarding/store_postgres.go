package onboarding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

// PostgresStore persists onboarding requests in PostgreSQL. Row-level
// statements replace the file store's wholesale rewrite; the unique primary
// key gives Append its no-replace guarantee.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the table this store expects. Applied by the operator or the
// integration tests, not by the store itself.
const Schema = `
CREATE TABLE IF NOT EXISTS onboarding_requests (
    id                UUID PRIMARY KEY,
    project_id        TEXT NOT NULL,
    username          TEXT NOT NULL,
    submitted_at      TIMESTAMPTZ NOT NULL,
    answers_file      TEXT NOT NULL DEFAULT '',
    data_answers_file TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL,
    rejection_reason  TEXT NOT NULL DEFAULT '',
    decided_at        TIMESTAMPTZ,
    decided_by        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS onboarding_requests_project_idx ON onboarding_requests (project_id);
CREATE INDEX IF NOT EXISTS onboarding_requests_username_idx ON onboarding_requests (username);
`

const requestColumns = `id, project_id, username, submitted_at, answers_file,
	data_answers_file, status, rejection_reason, decided_at, decided_by`

func (s *PostgresStore) Append(ctx context.Context, request *Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO onboarding_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(request.ID),
		request.ProjectID.String(),
		request.Username.String(),
		request.SubmittedAt,
		request.AnswersFile,
		request.DataAnswersFile,
		string(request.Status),
		request.RejectionReason,
		nullTime(request.DecidedAt),
		request.DecidedBy.String(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestID id.RequestID) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM onboarding_requests
		WHERE id = $1`,
		uuid.UUID(requestID),
	)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*Request, error) {
	return s.list(ctx, `
		SELECT `+requestColumns+`
		FROM onboarding_requests
		WHERE project_id = $1
		ORDER BY submitted_at`,
		projectID.String(),
	)
}

func (s *PostgresStore) ListByApplicant(ctx context.Context, username id.Username) ([]*Request, error) {
	return s.list(ctx, `
		SELECT `+requestColumns+`
		FROM onboarding_requests
		WHERE username = $1
		ORDER BY submitted_at`,
		username.String(),
	)
}

func (s *PostgresStore) Update(ctx context.Context, request *Request) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE onboarding_requests
		SET data_answers_file = $2,
		    status = $3,
		    rejection_reason = $4,
		    decided_at = $5,
		    decided_by = $6
		WHERE id = $1`,
		uuid.UUID(request.ID),
		request.DataAnswersFile,
		string(request.Status),
		request.RejectionReason,
		nullTime(request.DecidedAt),
		request.DecidedBy.String(),
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		out = append(out, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		request   Request
		requestID uuid.UUID
		projectID string
		username  string
		status    string
		decidedAt sql.NullTime
		decidedBy string
	)
	err := row.Scan(
		&requestID,
		&projectID,
		&username,
		&request.SubmittedAt,
		&request.AnswersFile,
		&request.DataAnswersFile,
		&status,
		&request.RejectionReason,
		&decidedAt,
		&decidedBy,
	)
	if err != nil {
		return nil, err
	}
	request.ID = id.RequestID(requestID)
	request.ProjectID = id.ProjectID(projectID)
	request.Username = id.Username(username)
	request.Status = id.RequestStatus(status)
	if decidedAt.Valid {
		t := decidedAt.Time
		request.DecidedAt = &t
	}
	request.DecidedBy = id.Username(decidedBy)
	return &request, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
