package database

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/kartverket/frisk-backend/internal/model"
	"github.com/kartverket/frisk-backend/pkg/log"
)

var DB *gorm.DB

// InitMySQL 初始化 MySQL 数据库连接
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database", err)
	}

	// 配置连接池：阻塞型数据库 I/O 共享这一个池，请求处理协程按需取用
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL database connected successfully")
}

// Migrate 执行表结构迁移并写入种子数据。
// 根节点 (id=1, path="1") 必须先于所有业务操作存在。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Function{},
		&model.FunctionHistory{},
		&model.MetadataKey{},
		&model.FunctionMetadata{},
		&model.FunctionDependency{},
	); err != nil {
		return err
	}

	root := model.Function{
		ID:         model.RootFunctionID,
		Name:       "Kartverket",
		Path:       "1",
		OrderIndex: 0,
	}
	if err := db.Where("id = ?", model.RootFunctionID).FirstOrCreate(&root).Error; err != nil {
		return err
	}

	log.Info("Database migrations applied successfully")
	return nil
}
