package database

import "gorm.io/gorm"

// OpenMemory 打开一个已迁移的内存 sqlite 库，本地调试与测试共用
func OpenMemory(name string) (*gorm.DB, error) {
	db, err := NewGorm(Opts{
		Driver:       "sqlite",
		DSN:          MemoryDSN(name),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
