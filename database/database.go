package database

import (
	"fmt"
	"time"

	"lms/config"
	"lms/logger"
	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the configured database, runs migrations and stores the
// handle globally.
func ConnectDb() {
	db, err := Open(config.AppConfig, gormlogger.Default.LogMode(gormlogger.Warn))
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", config.AppConfig.DBDriver).Msg("failed to connect to database")
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to get database instance")
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(db); err != nil {
		logger.Log.Fatal().Err(err).Msg("migration failed")
	}

	Database = DbInstance{Db: db}
}

// Open builds a gorm handle for cfg.DBDriver. DB_DSN, when set, is passed
// to the driver verbatim.
func Open(cfg *config.Config, gl gormlogger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
				cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
			)
		}
		dialector = postgres.Open(dsn)
	case "mysql":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
			)
		}
		dialector = mysql.Open(dsn)
	case "sqlite":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = cfg.DBName
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   gl,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// RunMigrations performs database migrations
func RunMigrations(db *gorm.DB) error {
	logger.Log.Info().Msg("running migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.LoginHistory{},
		&models.PasswordReset{},
		&courseModels.Course{},
		&courseModels.Chapter{},
		&courseModels.Lecture{},
		&courseModels.LectureCompletion{},
		&courseModels.Enrollment{},
		&courseModels.Questionnaire{},
		&courseModels.Question{},
		&courseModels.QuizAttempt{},
		&courseModels.Certification{},
		&courseModels.Placeholder{},
		&courseModels.CertificateRequest{},
		&courseModels.CertificateIssuance{},
		&courseModels.Review{},
		&commerce.Cart{},
		&commerce.CartItem{},
		&commerce.Order{},
		&commerce.OrderItem{},
	)
	if err != nil {
		return err
	}

	logger.Log.Info().Msg("migrations completed successfully")
	return nil
}

// Ping checks the connection is alive.
func Ping() error {
	if Database.Db == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := Database.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
