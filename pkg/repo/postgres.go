package repo

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kvEntry struct {
	Key       string `gorm:"column:entry_key;primaryKey"`
	Value     string `gorm:"column:entry_value"`
	UpdatedAt time.Time
}

func (kvEntry) TableName() string {
	return "dashboard_kv_entries"
}

type Postgres struct {
	db *gorm.DB
}

func OpenPostgres(connectionString string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}

	return NewPostgres(db)
}

func NewPostgres(db *gorm.DB) (*Postgres, error) {
	m := gormigrate.New(db, &gormigrate.Options{
		TableName:                 "gorm_migrations",
		IDColumnName:              "id",
		IDColumnSize:              255,
		UseTransaction:            false,
		ValidateUnknownMigrations: false,
	}, getMigrations())

	if err := m.Migrate(); err != nil {
		return nil, errors.Wrap(err, "failed to migrate")
	}

	return &Postgres{
		db: db,
	}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry

	err := p.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read key %s", key)
	}

	return entry.Value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value string) error {
	entry := kvEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	if err := p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&entry).Error; err != nil {
		return errors.Wrapf(err, "failed to write key %s", key)
	}

	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	return p.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&kvEntry{}).Error
}

func (p *Postgres) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := p.db.WithContext(ctx).
		Model(&kvEntry{}).
		Where("entry_key LIKE ?", escapeLike(prefix)+"%").
		Order("entry_key").
		Pluck("entry_key", &keys).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list keys")
	}

	return keys, nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	return p.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&kvEntry{}).Error
}

func escapeLike(input string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(input)
}
