package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 宿舍系统独立的版本表，避免与同库其他服务冲突
const migrationsTable = "ktx_schema_migrations"

// RunMigrations 将宿舍库表结构升级到内嵌迁移的最新版本
// 上次迁移中断（dirty）时拒绝继续，需要人工 force 修复后再启动
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载宿舍库迁移文件失败: %w", err)
	}

	target, err := latestVersion(src)
	if err != nil {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("查询当前迁移版本失败: %w", err)
	}
	if dirty {
		logger.Error("宿舍库迁移处于 dirty 状态，已停止启动",
			zap.Uint("version", from),
			zap.String("table", migrationsTable),
		)
		return fmt.Errorf("迁移版本 %d 处于 dirty 状态", from)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("宿舍库表结构已是最新", zap.Uint("version", from))
			return nil
		}
		return fmt.Errorf("执行迁移失败 (%d → %d): %w", from, target, err)
	}

	to, _, _ := m.Version()
	logger.Info("宿舍库迁移完成",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
		zap.String("table", migrationsTable),
	)
	return nil
}

// latestVersion 遍历迁移源，返回最高版本号，并要求每个 up 都有对应的 down
func latestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		if err := hasBothDirections(src, v); err != nil {
			return 0, err
		}
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		v = next
	}
}

func hasBothDirections(src source.Driver, version uint) error {
	up, _, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("版本 %d 缺少 up 迁移: %w", version, err)
	}
	up.Close()
	down, _, err := src.ReadDown(version)
	if err != nil {
		return fmt.Errorf("版本 %d 缺少 down 迁移: %w", version, err)
	}
	down.Close()
	return nil
}
