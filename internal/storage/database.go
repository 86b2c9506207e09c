package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"chatgo/internal/config"
	"chatgo/internal/models"
)

// InitDB initializes the database connection using the provided configuration.
// The returned handle is the process-wide connection pool; it is owned by the
// caller (opened at startup, closed at shutdown) and passed explicitly into
// repositories rather than kept as ambient global state.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dsn string
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		var dsnParts []string
		dsnParts = append(dsnParts, fmt.Sprintf("host=%s", cfg.Host))
		dsnParts = append(dsnParts, fmt.Sprintf("port=%d", cfg.Port))
		dsnParts = append(dsnParts, fmt.Sprintf("user=%s", cfg.User))
		dsnParts = append(dsnParts, fmt.Sprintf("dbname=%s", cfg.DBName))

		if cfg.Password != "" {
			dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
		}

		dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))

		dsn = strings.Join(dsnParts, " ")
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
func AutoMigrateTables(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Channel{},
		&models.ChannelMember{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	log.Info().Msg("数据库迁移完成")
	return nil
}

// SeedChannels creates the well-known channels every installation has: the
// shared "general" channel that all users join at registration, and the
// singleton AI assistant channel. Idempotent.
func SeedChannels(db *gorm.DB) error {
	seeds := []models.Channel{
		{ID: models.GeneralChannelID, Name: "General", Type: models.GroupChannel, CreatedAt: time.Now()},
		{ID: models.AIAssistantChannelID, Name: models.AIAssistantName, Type: models.AIChannel, CreatedAt: time.Now()},
	}
	for _, seed := range seeds {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("创建种子频道 %s 失败: %w", seed.ID, err)
		}
	}
	return nil
}
