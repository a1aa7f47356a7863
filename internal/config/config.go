package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FilesConfig struct {
	RootDir string `yaml:"root_dir"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	// сроки жизни сессий в секундах
	SessionMaxAge int `yaml:"session_max_age"`
	SignupMaxAge  int `yaml:"signup_max_age"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Files    FilesConfig    `yaml:"files"`
	JWT      JWTConfig      `yaml:"jwt"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// Load читает конфиг из yaml-файла; CONFIG_PATH имеет приоритет над аргументом.
func Load(path string) (*Config, error) {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Files.RootDir == "" {
		cfg.Files.RootDir = "./files"
	}
	if cfg.JWT.SessionMaxAge == 0 {
		cfg.JWT.SessionMaxAge = 60 * 60 * 24
	}
	if cfg.JWT.SignupMaxAge == 0 {
		cfg.JWT.SignupMaxAge = 60 * 30
	}
	return &cfg, nil
}
