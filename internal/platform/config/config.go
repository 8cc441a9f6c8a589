package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"

	defaultAddr             = ":8443"
	defaultPageLimit        = 10
	defaultMaxOpenPerClient = 10
	defaultTokenTTL         = 24 * time.Hour
	defaultShutdownTimeout  = 10 * time.Second
	defaultDBPort           = 3306
	envDBPassword           = "LIBRA_DB_PASSWORD"
	envJWTSecret            = "LIBRA_JWT_SECRET"
	envAdminPassword        = "LIBRA_ADMIN_PASSWORD"
)

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

// TLS が有効か（cert/key 両方指定時のみ）
func (c Certs) Enabled() bool { return c.Cert != "" && c.Key != "" }

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowOrigins    []string      `yaml:"allow_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
}

type LoanConfig struct {
	MaxOpenPerClient int `yaml:"max_open_per_client"`
	PageLimit        int `yaml:"page_limit"`
}

type ReportConfig struct {
	// PDF用のTTFフォント（キリル文字を出すなら必須）
	FontPath    string `yaml:"font_path"`
	CSVEncoding string `yaml:"csv_encoding"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Server      ServerConfig   `yaml:"server"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Auth        AuthConfig     `yaml:"auth"`
	Loans       LoanConfig     `yaml:"loans"`
	Reports     ReportConfig   `yaml:"reports"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// 秘密情報は環境変数で上書きできる
func (c *Config) applyEnv() {
	if v := os.Getenv(envDBPassword); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv(envJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(envAdminPassword); v != "" {
		c.Auth.AdminPassword = v
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDev
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.DB.Port == 0 {
		c.DB.Port = defaultDBPort
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.Loans.MaxOpenPerClient == 0 {
		c.Loans.MaxOpenPerClient = defaultMaxOpenPerClient
	}
	if c.Loans.PageLimit <= 0 {
		c.Loans.PageLimit = defaultPageLimit
	}
	c.Reports.CSVEncoding = strings.ToLower(strings.TrimSpace(c.Reports.CSVEncoding))
	if c.Reports.CSVEncoding == "" {
		c.Reports.CSVEncoding = EncodingUTF8
	}
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	if strings.TrimSpace(c.DB.DBName) == "" {
		return fmt.Errorf("database.dbname is required")
	}
	if c.Loans.MaxOpenPerClient < 0 {
		return fmt.Errorf("loans.max_open_per_client must be > 0")
	}
	switch c.Reports.CSVEncoding {
	case EncodingUTF8, EncodingWindows1251:
	default:
		return fmt.Errorf("reports.csv_encoding must be %q or %q", EncodingUTF8, EncodingWindows1251)
	}
	if c.Mode == ModeRelease && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in release mode")
	}
	return nil
}
