package configs

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"galangdana_backend/internals/logger"
)

var (
	JWTSecret string
	App       *AppConfig
)

type AppConfig struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Gateway   GatewayConfig   `mapstructure:",squash"`
	Payment   PaymentConfig   `mapstructure:",squash"`
	Reconcile ReconcileConfig `mapstructure:",squash"`
	Log       LogConfig       `mapstructure:",squash"`
}

type ServerConfig struct {
	Env         string `mapstructure:"app_env"`
	Port        string `mapstructure:"port"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	CORSOrigins string `mapstructure:"cors_origins"` // dipisah koma
}

type DatabaseConfig struct {
	Host     string `mapstructure:"db_host"`
	Port     string `mapstructure:"db_port"`
	User     string `mapstructure:"db_user"`
	Password string `mapstructure:"db_password"`
	Name     string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"db_sslmode"`
}

type GatewayConfig struct {
	Provider          string `mapstructure:"gateway_provider"` // mock | midtrans
	MidtransServerKey string `mapstructure:"midtrans_server_key"`
	MidtransUseProd   bool   `mapstructure:"midtrans_use_prod"`
	IrisCreatorKey    string `mapstructure:"midtrans_iris_creator_key"`
	IrisApproverKey   string `mapstructure:"midtrans_iris_approver_key"`
	IrisMerchantKey   string `mapstructure:"midtrans_iris_merchant_key"`
	CallbackSecret    string `mapstructure:"callback_secret"`
}

type PaymentConfig struct {
	Currency      string        `mapstructure:"payment_currency"`
	InvoiceExpiry time.Duration `mapstructure:"payment_invoice_expiry"`
	VAExpiry      time.Duration `mapstructure:"payment_va_expiry"`
	EwalletExpiry time.Duration `mapstructure:"payment_ewallet_expiry"`
}

type ReconcileConfig struct {
	Enabled              bool          `mapstructure:"reconcile_enabled"`
	IncrementalInterval  time.Duration `mapstructure:"reconcile_incremental_interval"`
	IncrementalHoursBack int           `mapstructure:"reconcile_incremental_hours"`
	FullInterval         time.Duration `mapstructure:"reconcile_full_interval"`
	ExpireInterval       time.Duration `mapstructure:"reconcile_expire_interval"`
	DisbursementInterval time.Duration `mapstructure:"reconcile_disbursement_interval"`
	ProjectSweepInterval time.Duration `mapstructure:"project_sweep_interval"`
	Workers              int           `mapstructure:"reconcile_workers"`
	AdvisoryLock         bool          `mapstructure:"reconcile_advisory_lock"`
}

type LogConfig struct {
	Level  string `mapstructure:"log_level"`
	Output string `mapstructure:"log_output"` // stdout | file
	File   string `mapstructure:"log_file"`
}

func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() *AppConfig {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("[WARN] .env tidak ditemukan, pakai ENV sistem")
		} else {
			logger.Info("[INFO] .env dimuat")
		}
	} else {
		logger.Info("[INFO] Running in Railway, pakai ENV sistem")
	}

	cfg, err := Load()
	if err != nil {
		logger.Fatal("[ERROR] config tidak valid: %v", err)
	}
	App = cfg
	JWTSecret = cfg.Server.JWTSecret

	if JWTSecret == "" {
		logger.Warn("[WARN] JWT_SECRET belum diset!")
	}
	if cfg.Gateway.Provider == "midtrans" && cfg.Gateway.MidtransServerKey == "" {
		logger.Warn("[WARN] MIDTRANS_SERVER_KEY belum diset!")
	}
	return cfg
}

// Load membaca konfigurasi dari ENV (viper) tanpa menyentuh .env.
func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("app_env", "development")
	v.SetDefault("port", "3000")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("cors_origins", "http://localhost:5173,http://127.0.0.1:5500")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "galangdana")
	v.SetDefault("db_sslmode", "require")

	v.SetDefault("gateway_provider", "")
	v.SetDefault("midtrans_server_key", "")
	v.SetDefault("midtrans_use_prod", false)
	v.SetDefault("midtrans_iris_creator_key", "")
	v.SetDefault("midtrans_iris_approver_key", "")
	v.SetDefault("midtrans_iris_merchant_key", "")
	v.SetDefault("callback_secret", "")

	v.SetDefault("payment_currency", "IDR")
	v.SetDefault("payment_invoice_expiry", "24h")
	v.SetDefault("payment_va_expiry", "24h")
	v.SetDefault("payment_ewallet_expiry", "15m")

	v.SetDefault("reconcile_enabled", true)
	v.SetDefault("reconcile_incremental_interval", "15m")
	v.SetDefault("reconcile_incremental_hours", 2)
	v.SetDefault("reconcile_full_interval", "24h")
	v.SetDefault("reconcile_expire_interval", "5m")
	v.SetDefault("reconcile_disbursement_interval", "30m")
	v.SetDefault("project_sweep_interval", "10m")
	v.SetDefault("reconcile_workers", 8)
	v.SetDefault("reconcile_advisory_lock", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_output", "stdout")
	v.SetDefault("log_file", "logs/app.log")

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Gateway.Provider = strings.ToLower(strings.TrimSpace(cfg.Gateway.Provider))
	if cfg.Gateway.Provider == "" {
		if cfg.IsProduction() {
			cfg.Gateway.Provider = "midtrans"
		} else {
			cfg.Gateway.Provider = "mock"
		}
	}
	if cfg.Gateway.CallbackSecret == "" {
		cfg.Gateway.CallbackSecret = cfg.Gateway.IrisMerchantKey
	}
	if cfg.Reconcile.Workers <= 0 {
		cfg.Reconcile.Workers = 1
	}
	return &cfg, nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}
