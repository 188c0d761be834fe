package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the file Load looks for in the config directory
const ConfigFileName = "roadsim.cfg.json"

// StorageConfig selects and configures the recording backend
type StorageConfig struct {
	Type      string         `json:"type" mapstructure:"type"`
	BatchSize int            `json:"batchSize" mapstructure:"batchSize"` // state rows per db write
	Memory    MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite backend settings. An empty Path keeps the database in memory.
// A non-empty DumpPath snapshots it to disk every DumpInterval and on close.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN formats the connection string for gorm's postgres driver.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// SceneConfig describes the synthetic scene the CLI builds and runs
type SceneConfig struct {
	Name            string
	Vehicles        int
	AVs             int
	Ticks           int
	Dt              time.Duration
	LaneSpacing     float64
	Speed           float64
	MaxSpeed        float64
	IntersectWindow int
	OriginLon       float64
	OriginLat       float64
}

// InfluxConfig holds InfluxDB metrics settings
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./roadsimlogs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "roadsim")
	viper.SetDefault("influx.bucket", "scene_ticks")
	viper.SetDefault("influx.backupPath", "./roadsimlogs/influx_backup.lp.gz")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")
	viper.SetDefault("storage.batchSize", 5000)
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "roadsim")

	viper.SetDefault("scene.name", "intersection")
	viper.SetDefault("scene.vehicles", 8)
	viper.SetDefault("scene.avs", 1)
	viper.SetDefault("scene.ticks", 90)
	viper.SetDefault("scene.dt", "100ms")
	viper.SetDefault("scene.laneSpacing", 4.0)
	viper.SetDefault("scene.speed", 10.0)
	viper.SetDefault("scene.maxSpeed", 30.0)
	viper.SetDefault("scene.intersectWindow", 50)
	viper.SetDefault("scene.originLon", 0.0)
	viper.SetDefault("scene.originLat", 0.0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section with defaults applied.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		BatchSize: viper.GetInt("storage.batchSize"),
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
	}
}

// GetSceneConfig returns the scene section with defaults applied.
func GetSceneConfig() SceneConfig {
	return SceneConfig{
		Name:            viper.GetString("scene.name"),
		Vehicles:        viper.GetInt("scene.vehicles"),
		AVs:             viper.GetInt("scene.avs"),
		Ticks:           viper.GetInt("scene.ticks"),
		Dt:              viper.GetDuration("scene.dt"),
		LaneSpacing:     viper.GetFloat64("scene.laneSpacing"),
		Speed:           viper.GetFloat64("scene.speed"),
		MaxSpeed:        viper.GetFloat64("scene.maxSpeed"),
		IntersectWindow: viper.GetInt("scene.intersectWindow"),
		OriginLon:       viper.GetFloat64("scene.originLon"),
		OriginLat:       viper.GetFloat64("scene.originLat"),
	}
}

// GetInfluxConfig returns the influx section with defaults applied.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: fmt.Sprintf("%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}
