package store

import (
	"database/sql"
	"time"
)

// Project is one cataloged project directory. Optional fields use sql.Null
// types so absent metadata is stored as NULL rather than empty strings.
type Project struct {
	ID           int64
	Name         string
	Path         string
	ReadmePath   sql.NullString
	BacklinkPage sql.NullString
	RepoURL      sql.NullString
	IsPrivate    sql.NullBool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastModified sql.NullTime
}
