package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the sqlite-backed persistence layer. Uses an in-memory database
// when dataDir is empty, which the tests rely on.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New opens (and creates, if needed) the database under dataDir.
func New(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var dsn string
	if dataDir == "" {
		// cache=shared lets every connection see the same in-memory db
		dsn = "file::memory:?cache=shared&_pragma=busy_timeout(10000)"
	} else {
		if _, err := os.Stat(dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		dbPath := filepath.Join(dataDir, "army.sqlite")
		connOpts := "_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
		dsn = fmt.Sprintf("file:%s?%s", dbPath, connOpts)
	}
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close shuts down the database connection.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// NextID increments the named counter and returns the new value. Safe under
// concurrent callers: the update and re-read run in one transaction and
// sqlite serializes writers, so N callers get N distinct consecutive ids.
func (s *Store) NextID(name string) (int64, error) {
	var id int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Counter{}).
			Where("name = ?", name).
			Update("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Counter{Name: name, Value: 1}).Error; err != nil {
				return err
			}
		}
		var c models.Counter
		if err := tx.First(&c, "name = ?", name).Error; err != nil {
			return err
		}
		id = c.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return id, nil
}

// Create inserts a new record.
func (s *Store) Create(value any) error {
	return s.db.Create(value).Error
}

// Save persists all fields of an existing record.
func (s *Store) Save(value any) error {
	return s.db.Save(value).Error
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
