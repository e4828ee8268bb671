package config

import "time"

type Server struct {
	Version      string       `yaml:"version"`
	AdminServer  AdminServer  `yaml:"admin_server"`
	Log          Log          `yaml:"log"`
	ConfigCenter ConfigCenter `yaml:"config_center"`
	Database     Database     `yaml:"database"`
}

type AdminServer struct {
	Addr            string `yaml:"addr"`
	EnableBasicAuth bool   `yaml:"enable_basic_auth"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	MaxConnections  int    `yaml:"max_connections"`
}

type Log struct {
	Level   string  `yaml:"level"`
	Format  string  `yaml:"format"`
	LogFile LogFile `yaml:"log_file"`
}

type LogFile struct {
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"max_size"`
	MaxDays    int    `yaml:"max_days"`
	MaxBackups int    `yaml:"max_backups"`
}

type ConfigCenter struct {
	Type       string     `yaml:"type"`
	ConfigFile ConfigFile `yaml:"config_file"`
	ConfigEtcd ConfigEtcd `yaml:"config_etcd"`
}

type ConfigFile struct {
	Path string `yaml:"path"`
}

type ConfigEtcd struct {
	Addrs    []string `yaml:"addrs"`
	BasePath string   `yaml:"base_path"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// Database holds daemon-side settings of the pool lifecycle. Connection
// parameters live in the config center.
type Database struct {
	StartTimeoutSec int    `yaml:"start_timeout_sec"`
	HealthQuery     string `yaml:"health_query"`
}

const (
	DefaultStartTimeoutSec = 30
	DefaultHealthQuery     = "SELECT 1"
)

func (d Database) StartTimeout() time.Duration {
	return time.Duration(d.StartTimeoutSec) * time.Second
}

// Adjust fills the unset fields with defaults.
func (s *Server) Adjust() {
	if s.Database.StartTimeoutSec <= 0 {
		s.Database.StartTimeoutSec = DefaultStartTimeoutSec
	}
	if s.Database.HealthQuery == "" {
		s.Database.HealthQuery = DefaultHealthQuery
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "console"
	}
}
