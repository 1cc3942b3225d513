package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Drivers de almacenamiento soportados.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// unsetConns marca min_conns ausente del YAML; un 0 explícito se respeta.
const unsetConns = -1

// Config es la configuración completa de marketboard.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig controla dónde se persisten markers y ventas.
type StorageConfig struct {
	Driver   string         `yaml:"driver"` // sqlite | postgres
	DSN      string         `yaml:"dsn"`    // ruta al archivo SQLite, o ":memory:"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contiene la conexión a PostgreSQL.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HistoryConfig controla las lecturas de historia.
type HistoryConfig struct {
	DefaultCount    int     `yaml:"default_count"`      // ventas por historia si la query no indica count
	FetchWorkers    int     `yaml:"fetch_workers"`      // lecturas de ventas en paralelo en RetrieveMany
	FetchRatePerSec float64 `yaml:"fetch_rate_per_sec"` // 0 = sin límite
	FetchBurst      int     `yaml:"fetch_burst"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	return Parse(data)
}

// Parse interpreta un documento YAML, aplica overrides de entorno y defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{}
	cfg.Storage.Postgres.MinConns = unsetConns
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Parse: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// LoadAndValidate carga la configuración y la valida.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Validate: %w", err)
	}
	return cfg, nil
}

// Default devuelve la configuración por defecto (SQLite local).
func Default() *Config {
	_ = godotenv.Load()

	cfg := Config{}
	cfg.Storage.Postgres.MinConns = unsetConns
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// Validate comprueba que los campos requeridos estén presentes y sean válidos.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for sqlite")
		}
	case DriverPostgres:
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.driver must be %s or %s, got %q", DriverSQLite, DriverPostgres, c.Storage.Driver)
	}

	if c.History.DefaultCount < 1 {
		return errors.New("history.default_count must be >= 1")
	}
	if c.History.FetchWorkers < 1 {
		return errors.New("history.fetch_workers must be >= 1")
	}
	if c.History.FetchRatePerSec < 0 {
		return errors.New("history.fetch_rate_per_sec must be >= 0")
	}
	if c.History.FetchBurst < 1 {
		return errors.New("history.fetch_burst must be >= 1")
	}
	return nil
}

func (p *PostgresConfig) validate(prefix string) error {
	if p.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if p.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if p.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if p.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if p.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if p.MinConns > p.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, p.MinConns, p.MaxConns)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Storage.Postgres.Password = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == DriverSQLite {
		cfg.Storage.DSN = "marketboard.db"
	}

	pg := &cfg.Storage.Postgres
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "prefer"
	}
	if pg.MaxConns == 0 {
		pg.MaxConns = 10
	}
	if pg.MinConns == unsetConns {
		pg.MinConns = min(2, pg.MaxConns)
	}

	if cfg.History.DefaultCount <= 0 {
		cfg.History.DefaultCount = 1000
	}
	if cfg.History.FetchWorkers <= 0 {
		cfg.History.FetchWorkers = 4
	}
	if cfg.History.FetchBurst <= 0 {
		cfg.History.FetchBurst = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
