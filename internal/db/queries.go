package db

const (
	InsertJob = `
		INSERT INTO print_jobs (display_name, file_path, original_filename, file_type, file_size, is_color, copies, page_range, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetJobByID = `
		SELECT id, display_name, file_path, original_filename, file_type, file_size, is_color, copies, page_range, status, created_at
		FROM print_jobs WHERE id = ?
	`

	// Canonical queue order: pending jobs float to the top, everything
	// else newest-first.
	ListJobs = `
		SELECT id, display_name, file_path, original_filename, file_type, file_size, is_color, copies, page_range, status, created_at
		FROM print_jobs
		ORDER BY CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END, created_at DESC, id DESC
	`

	ListJobsByStatus = `
		SELECT id, display_name, file_path, original_filename, file_type, file_size, is_color, copies, page_range, status, created_at
		FROM print_jobs WHERE status = ? ORDER BY created_at DESC, id DESC
	`

	UpdateJobStatus = `
		UPDATE print_jobs SET status = ? WHERE id = ?
	`

	CountJobsByStatus = `
		SELECT COUNT(*) FROM print_jobs WHERE status = ?
	`
)

const (
	InsertUser = `
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)
	`

	GetUserByID = `
		SELECT id, username, password_hash FROM users WHERE id = ?
	`

	GetUserByUsername = `
		SELECT id, username, password_hash FROM users WHERE username = ?
	`
)

const (
	GetSetting = `SELECT value, updated_at FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`
)
