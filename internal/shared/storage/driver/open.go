// Package driver 按配置选择并初始化 PersistentStore 实现
//
//   - mongodb  → mongostore（默认）
//   - postgres → repository + postgres 方言
//   - sqlite   → repository + sqlite 方言
package driver

import (
	"database/sql"
	"fmt"

	"bloodbank-admin/internal/shared/storage"
	"bloodbank-admin/internal/shared/storage/dbutil"
	"bloodbank-admin/internal/shared/storage/driver/postgres"
	"bloodbank-admin/internal/shared/storage/driver/sqlite"
	"bloodbank-admin/internal/shared/storage/mongostore"
	"bloodbank-admin/internal/shared/storage/repository"
)

// Options 存储初始化参数
type Options struct {
	Driver string // mongodb / postgres / sqlite
	URL    string // 连接字符串或 SQLite DSN
	DBName string // MongoDB 数据库名称
}

// Open 创建存储实例，SQL 驱动会自动执行 Schema 迁移
func Open(opts Options) (storage.PersistentStore, error) {
	driverType, err := dbutil.ParseDriverType(opts.Driver)
	if err != nil {
		return nil, err
	}

	switch driverType {
	case dbutil.DriverMongoDB:
		s, err := mongostore.NewStore(opts.URL, opts.DBName)
		if err != nil {
			return nil, err
		}
		return s, nil
	case dbutil.DriverPostgres:
		db, err := postgres.Open(opts.URL)
		if err != nil {
			return nil, err
		}
		return openSQL(db, postgres.NewDialect())
	default:
		db, err := sqlite.Open(opts.URL)
		if err != nil {
			return nil, err
		}
		return openSQL(db, sqlite.NewDialect())
	}
}

func openSQL(db *sql.DB, dialect dbutil.Dialect) (storage.PersistentStore, error) {
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate (%s): %w", dialect.DriverType(), err)
	}
	return repository.NewStore(db, dialect), nil
}
