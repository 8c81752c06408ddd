package database

import (
	"fmt"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"galangdana_backend/internals/configs"
	"galangdana_backend/internals/logger"
)

var DB *gorm.DB

// BuildDSN menyusun URL postgres + statement_timeout (dipakai gorm & pgxpool).
func BuildDSN(c configs.DatabaseConfig) string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", sslmode)
	q.Set("application_name", "galangdana")
	q.Set("options", "-c statement_timeout=5000")
	u.RawQuery = q.Encode()
	return u.String()
}

func ConnectDB(cfg *configs.AppConfig) (*gorm.DB, error) {
	logger.Info("🔌 Koneksi ke PostgreSQL %s:%s/%s ...", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  BuildDSN(cfg.Database),
		PreferSimpleProtocol: true, // aman untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(cfg.Log.Level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	DB = db
	logger.Info("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries(db *gorm.DB) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(db); err != nil {
			logger.Warn("warm-up ping err: %v", err)
			return
		}
		// query yang paling sering: daftar project aktif
		db.Exec("SELECT 1 FROM projects WHERE project_status = 'ACTIVE' LIMIT 1")
	}()
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
