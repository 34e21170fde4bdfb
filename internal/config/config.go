package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env:"SCANFLOW_ENV" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9100"`
		ApiKey string `yaml:"key" env:"SCANFLOW_API_KEY" env-default:""`
	} `yaml:"listen"`
	Backend struct {
		BaseURL string        `yaml:"base_url" env:"SCANFLOW_BACKEND_URL" env-default:"http://127.0.0.1:8069/shopfloor"`
		ApiKey  string        `yaml:"api_key" env:"SCANFLOW_BACKEND_KEY" env-default:""`
		Timeout time.Duration `yaml:"timeout" env-default:"0s"`
		Workers int           `yaml:"workers" env-default:"16"`
	} `yaml:"backend"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:"scanflow"`
	} `yaml:"mongo"`
	Features struct {
		PackageMeasurement bool `yaml:"package_measurement" env-default:"false"`
	} `yaml:"features"`
	Session struct {
		FailureMessage string `yaml:"failure_message" env-default:""`
		// WaitTimeout bounds how long an events request waits for the call it started.
		WaitTimeout time.Duration `yaml:"wait_timeout" env-default:"0s"`
		// StreamSecret signs socket URLs handed out with new sessions. Empty disables them.
		StreamSecret string        `yaml:"stream_secret" env:"SCANFLOW_STREAM_SECRET" env-default:""`
		StreamTTL    time.Duration `yaml:"stream_ttl" env-default:"12h"`
	} `yaml:"session"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
