package repo

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func getMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "2024_11_02_Initial",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`create table if not exists dashboard_kv_entries
(
    entry_key   text not null
        constraint dashboard_kv_entries_pk
            primary key,
    entry_value text not null
);
`).Error
			},
		},
		{
			ID: "2024_11_09_AddUpdatedAt",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`alter table dashboard_kv_entries
	add column if not exists updated_at timestamp;
`).Error
			},
		},
	}
}
