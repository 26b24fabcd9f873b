// Package history records detection runs in a SQL database through GORM.
package history

import (
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"time"
)

// DefaultLimit is the number of runs Recent returns when no limit is given
const DefaultLimit = 20

// MaxLimit caps the number of runs Recent returns
const MaxLimit = 500

// Run is a single recorded detection
type Run struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
	// Source is where the image came from, e.g. http, photo or camera
	Source string `gorm:"size:32;not null" json:"source"`
	// ImageHash is the hex sha256 of the submitted image bytes
	ImageHash  string `gorm:"size:64;index" json:"image_hash"`
	Detections int    `gorm:"not null" json:"detections"`
	Shelves    int    `gorm:"not null" json:"shelves"`
	DurationMS int64  `json:"duration_ms"`
	// Scene is the laid out scene encoded as JSON
	Scene string `gorm:"type:text" json:"-"`
}

// TableName returns the table name for GORM.
func (Run) TableName() string {
	return "detection_runs"
}

// NewRun summarises a scene into a Run ready to be recorded
func NewRun(source, imageHash string, scene *shelfdetect.Scene, took time.Duration) (*Run, error) {

	data, err := json.Marshal(scene)

	if err != nil {
		return nil, errors.Wrap(err, "error encoding scene")
	}

	return &Run{
		Source:     source,
		ImageHash:  imageHash,
		Detections: len(scene.Items),
		Shelves:    len(scene.Shelves),
		DurationMS: took.Milliseconds(),
		Scene:      string(data),
	}, nil
}

// DecodeScene returns the scene stored with the run
func (r *Run) DecodeScene() (*shelfdetect.Scene, error) {

	var scene shelfdetect.Scene

	if err := json.Unmarshal([]byte(r.Scene), &scene); err != nil {
		return nil, errors.Wrapf(err, "error decoding scene of run %d", r.ID)
	}

	return &scene, nil
}

// Store persists runs
type Store struct {
	db *gorm.DB
}

// Open connects to the database with the named driver, sqlite or postgres,
// and migrates the runs table
func Open(driver, dsn string) (*Store, error) {

	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Errorf("unknown history driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})

	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s history", driver)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()

		if err != nil {
			return nil, errors.Wrap(err, "error configuring sqlite")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return NewStore(db)
}

// NewStore wraps an open database, migrating the runs table
func NewStore(db *gorm.DB) (*Store, error) {

	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate history")
	}

	return &Store{db: db}, nil
}

// Record persists a run, setting its ID and creation time
func (s *Store) Record(ctx context.Context, run *Run) error {

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return errors.Wrap(err, "error recording run")
	}

	return nil
}

// Recent returns the latest runs, newest first.  A limit of zero or less uses
// DefaultLimit and limits above MaxLimit are capped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {

	if limit <= 0 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	var runs []Run

	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error

	if err != nil {
		return nil, errors.Wrap(err, "error listing runs")
	}

	return runs, nil
}

// Close closes the database connection
func (s *Store) Close() error {

	sqlDB, err := s.db.DB()

	if err != nil {
		return err
	}

	return sqlDB.Close()
}
