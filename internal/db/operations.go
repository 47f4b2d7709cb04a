package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type JobStore struct {
	db *sql.DB
}

func NewJobStore(database *sql.DB) *JobStore {
	return &JobStore{db: database}
}

// Create inserts the job and fills in its assigned ID and creation time.
// Status is always PENDING at birth regardless of what the caller set.
func (s *JobStore) Create(ctx context.Context, j *PrintJob) error {
	if j.Copies <= 0 {
		j.Copies = 1
	}
	j.Status = StatusPending
	j.CreatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, InsertJob,
		j.DisplayName, j.FilePath, j.OriginalFilename, j.FileType, j.FileSize,
		j.IsColor, j.Copies, j.PageRange, j.Status, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get job id: %w", err)
	}
	j.ID = id
	return nil
}

func (s *JobStore) Get(ctx context.Context, id int64) (*PrintJob, error) {
	j := &PrintJob{}
	var pageRange sql.NullString
	err := s.db.QueryRowContext(ctx, GetJobByID, id).Scan(
		&j.ID, &j.DisplayName, &j.FilePath, &j.OriginalFilename, &j.FileType,
		&j.FileSize, &j.IsColor, &j.Copies, &pageRange, &j.Status, &j.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	j.PageRange = pageRange.String
	return j, nil
}

func (s *JobStore) List(ctx context.Context) ([]*PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, ListJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (s *JobStore) ListByStatus(ctx context.Context, status string) ([]*PrintJob, error) {
	rows, err := s.db.QueryContext(ctx, ListJobsByStatus, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// UpdateStatus sets the status unconditionally and returns the updated row.
// Transition legality is the caller's concern; unknown ids surface as
// sql.ErrNoRows.
func (s *JobStore) UpdateStatus(ctx context.Context, id int64, status string) (*PrintJob, error) {
	result, err := s.db.ExecContext(ctx, UpdateJobStatus, status, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return s.Get(ctx, id)
}

func (s *JobStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, CountJobsByStatus, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	return count, nil
}

func scanJobs(rows *sql.Rows) ([]*PrintJob, error) {
	var jobs []*PrintJob
	for rows.Next() {
		j := &PrintJob{}
		var pageRange sql.NullString
		if err := rows.Scan(
			&j.ID, &j.DisplayName, &j.FilePath, &j.OriginalFilename, &j.FileType,
			&j.FileSize, &j.IsColor, &j.Copies, &pageRange, &j.Status, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		j.PageRange = pageRange.String
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(database *sql.DB) *UserStore {
	return &UserStore{db: database}
}

func (s *UserStore) Create(ctx context.Context, u *User) error {
	result, err := s.db.ExecContext(ctx, InsertUser, u.Username, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx, GetUserByID, id).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx, GetUserByUsername, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return u, nil
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(database *sql.DB) *SettingsStore {
	return &SettingsStore{db: database}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (*Setting, error) {
	setting := &Setting{Key: key}
	err := s.db.QueryRowContext(ctx, GetSetting, key).Scan(&setting.Value, &setting.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return setting, nil
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, SetSetting, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
