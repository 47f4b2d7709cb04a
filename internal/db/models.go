package db

import (
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusPrinting  = "PRINTING"
	StatusCompleted = "COMPLETED"
	StatusExpired   = "EXPIRED"
)

// transitions holds the legal forward moves an operator may request.
// EXPIRED is reserved for the sweeper and is never a valid request target.
var transitions = map[string]string{
	StatusPending:  StatusPrinting,
	StatusPrinting: StatusCompleted,
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusPrinting, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	return transitions[from] == to
}

type PrintJob struct {
	ID               int64     `json:"id"`
	DisplayName      string    `json:"display_name"`
	FilePath         string    `json:"file_path"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	IsColor          bool      `json:"is_color"`
	Copies           int       `json:"copies"`
	PageRange        string    `json:"page_range,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
