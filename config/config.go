package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JwtSecret string `yaml:"jwt_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	os.MkdirAll(filepath.Join(c.System.Workdir), 0755) //nolint:errcheck
	os.MkdirAll(filepath.Join(c.System.Workdir, "logs"), 0755) //nolint:errcheck
	os.MkdirAll(filepath.Join(c.System.Workdir, "data"), 0755) //nolint:errcheck
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "gymd",
		Location: "Asia/Kuala_Lumpur",
		Workdir:  "/var/gymd",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6de5cc-gymd-0000-xxxx-secret",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "gymd",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/gymd/gymd.log",
	},
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := fmt.Sscanf(evalue, "%d", val)
	if err != nil || p != 1 {
		return
	}
}

// LoadConfig reads the YAML config file (if present) and applies GYMD_*
// environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	appConfig := DefaultAppConfig
	if cfile != "" {
		if _, err := os.Stat(cfile); err == nil {
			data, err := os.ReadFile(cfile)
			if err == nil {
				if err = yaml.Unmarshal(data, appConfig); err != nil {
					fmt.Fprintf(os.Stderr, "config parse error: %v\n", err)
				}
			}
		}
	}

	setEnvValue("GYMD_SYSTEM_WORKDIR", &appConfig.System.Workdir)
	setEnvBoolValue("GYMD_SYSTEM_DEBUG", &appConfig.System.Debug)

	setEnvValue("GYMD_WEB_HOST", &appConfig.Web.Host)
	setEnvValue("GYMD_WEB_SECRET", &appConfig.Web.JwtSecret)
	setEnvIntValue("GYMD_WEB_PORT", &appConfig.Web.Port)

	setEnvValue("GYMD_DB_HOST", &appConfig.Database.Host)
	setEnvValue("GYMD_DB_NAME", &appConfig.Database.Name)
	setEnvValue("GYMD_DB_USER", &appConfig.Database.User)
	setEnvValue("GYMD_DB_PWD", &appConfig.Database.Passwd)
	setEnvIntValue("GYMD_DB_PORT", &appConfig.Database.Port)
	setEnvBoolValue("GYMD_DB_DEBUG", &appConfig.Database.Debug)

	appConfig.initDirs()
	return appConfig
}
