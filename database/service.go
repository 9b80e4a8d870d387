package database

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// DatabaseOptions 单个数据库实例的连接参数。
// AutoMigrate 列出建连后需要自动迁移的模型。
type DatabaseOptions struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
	AutoMigrate  []any
}

// NewDefaultOptions 返回带连接池默认值的参数。
func NewDefaultOptions(name string, dialector gorm.Dialector) *DatabaseOptions {
	return &DatabaseOptions{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 校验必填项
func (o *DatabaseOptions) Validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("database name is required")
	case o.Dialector == nil:
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// DatabaseFactory 持有已打开的数据库连接，按名称索引。
type DatabaseFactory struct {
	mu  sync.RWMutex
	dbs map[string]*gorm.DB
}

func NewDatabaseFactory() *DatabaseFactory {
	return &DatabaseFactory{dbs: make(map[string]*gorm.DB)}
}

// Register 打开连接、配置连接池并执行自动迁移，成功后纳入工厂。
func (f *DatabaseFactory) Register(opts DatabaseOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.dbs[opts.Name]; dup {
		return fmt.Errorf("database '%s' already registered", opts.Name)
	}

	db, err := open(opts)
	if err != nil {
		return err
	}

	f.dbs[opts.Name] = db
	return nil
}

// open 建立 GORM 连接并套用连接池与迁移配置。
func open(opts DatabaseOptions) (*gorm.DB, error) {
	db, err := gorm.Open(opts.Dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database '%s': %w", opts.Name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for '%s': %w", opts.Name, err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := db.AutoMigrate(opts.AutoMigrate...); err != nil {
			return nil, fmt.Errorf("auto migrate failed for '%s': %w", opts.Name, err)
		}
	}
	return db, nil
}

// Each 遍历全部数据库实例
func (f *DatabaseFactory) Each(fn func(name string, db *gorm.DB)) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for name, db := range f.dbs {
		fn(name, db)
	}
}

// Close 关闭全部底层连接并清空工厂，逐个收集关闭失败的错误。
func (f *DatabaseFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, db := range f.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to get sql.DB for '%s': %w", name, err))
			continue
		}
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database '%s': %w", name, err))
		}
	}
	f.dbs = make(map[string]*gorm.DB)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing databases: %v", errs)
	}
	return nil
}
