package database

import (
	"fmt"

	"github.com/anu-082006/Knee-Braced/internal/config"
	"github.com/anu-082006/Knee-Braced/internal/docstore"
	"github.com/anu-082006/Knee-Braced/internal/logging"
	"github.com/anu-082006/Knee-Braced/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// AutoMigrate creates tables, columns and foreign keys. Expression
	// indexes into the JSONB payload are handled separately below.
	err := DB.AutoMigrate(
		&models.User{},
		&docstore.Record{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_documents_patient ON documents (collection, (data->>'patient_id'));`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (collection, (data->>'status'));`,
		`CREATE INDEX IF NOT EXISTS idx_documents_timestamp ON documents (collection, (data->>'timestamp') DESC);`,
	}
	for _, index := range indexes {
		if err := DB.Exec(index).Error; err != nil {
			log.Fatal("Failed to create custom index on documents table", zap.Error(err))
		}
	}
	log.Info("Custom indexes ensured successfully.")
}
