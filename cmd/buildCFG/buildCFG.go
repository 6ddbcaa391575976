package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"walkieDesk/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type StorageConfig struct {
	Driver  string
	DataDir string
}

type RabbitConfig struct {
	Enabled        bool
	Url            string
	Exchange       string
	Queue          string
	OverdueMinutes int
}

type AdminConfig struct {
	SeedPin string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildStorageConfig(cfg *config.Config, log *zerolog.Logger) (StorageConfig, error) {
	driver := cfg.GetString("storage.driver")
	if driver == "" {
		driver = "file"
	}
	if driver != "file" && driver != "postgres" {
		return StorageConfig{}, fmt.Errorf("unknown storage driver %q", driver)
	}

	dataDir := cfg.GetString("storage.data_dir")
	if dataDir == "" {
		dataDir = "./data"
	}

	log.Info().Str("driver", driver).Msg("storage configured")
	return StorageConfig{Driver: driver, DataDir: dataDir}, nil
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("storage.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("storage.master_dsn is required for the postgres driver")
	}
	slaveDSNs := cfg.GetStringSlice("storage.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("storage.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("storage.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("storage.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("DB config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Enabled:        cfg.GetBool("rabbit.enabled"),
		Url:            cfg.GetString("rabbit.url"),
		Exchange:       cfg.GetString("rabbit.exchange"),
		Queue:          cfg.GetString("rabbit.queue"),
		OverdueMinutes: cfg.GetInt("rabbit.overdue_minutes"),
	}
	if !rc.Enabled {
		return rc, nil
	}
	if rc.Url == "" || rc.Exchange == "" || rc.Queue == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url, rabbit.exchange and rabbit.queue are required when rabbit.enabled is true")
	}
	if rc.OverdueMinutes <= 0 {
		rc.OverdueMinutes = 120
		log.Warn().Msg("rabbit.overdue_minutes not set, defaulting to 120")
	}
	return rc, nil
}

func BuildSMTPConfig(cfg *config.Config) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Enabled:    cfg.GetBool("smtp.enabled"),
		Host:       cfg.GetString("smtp.host"),
		Port:       cfg.GetInt("smtp.port"),
		From:       cfg.GetString("smtp.from"),
		Password:   cfg.GetString("smtp.password"),
		AdminEmail: cfg.GetString("smtp.admin_email"),
	}
}

func BuildAdminConfig(cfg *config.Config) AdminConfig {
	pin := cfg.GetString("admin.seed_pin")
	if pin == "" {
		pin = "1234"
	}
	return AdminConfig{SeedPin: pin}
}
