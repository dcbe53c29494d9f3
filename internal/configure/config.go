package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

func New() *Config {
	initLogging("info", LogFile{})

	// a local .env is optional and never overrides the real environment
	_ = godotenv.Load()

	config := viper.New()

	// Default config
	b, _ := json.Marshal(Default())
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)

	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(defaultConfig))
	checkErr(config.MergeConfigMap(tmp.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")

	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	// File
	config.SetConfigFile(config.GetString("config"))
	config.AddConfigPath(".")

	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	BindEnvs(config, Config{})

	// Environment
	config.AutomaticEnv()
	config.SetEnvPrefix("SOCIALSYNC")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)

	c := &Config{}
	checkErr(config.Unmarshal(&c))

	initLogging(c.Level, c.Log)

	return c
}

func BindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)

	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)

		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}

		switch v.Kind() {
		case reflect.Struct:
			BindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type BrokerMode string

const (
	BrokerModeRedis BrokerMode = "redis"
	BrokerModeNATS  BrokerMode = "nats"
)

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`
	InstanceID string `mapstructure:"instance_id" json:"instance_id"`

	Log LogFile `mapstructure:"log" json:"log"`

	K8S struct {
		NodeName string `mapstructure:"node_name" json:"node_name"`
		PodName  string `mapstructure:"pod_name" json:"pod_name"`
	} `mapstructure:"k8s" json:"k8s"`

	Redis struct {
		Username  string   `mapstructure:"username" json:"username"`
		Password  string   `mapstructure:"password" json:"password"`
		Database  int      `mapstructure:"db" json:"db"`
		Addresses []string `mapstructure:"addresses" json:"addresses"`
	} `mapstructure:"redis" json:"redis"`

	NATS struct {
		URL  string `mapstructure:"url" json:"url"`
		Name string `mapstructure:"name" json:"name"`
	} `mapstructure:"nats" json:"nats"`

	Mongo struct {
		URI     string        `mapstructure:"uri" json:"uri"`
		DB      string        `mapstructure:"db" json:"db"`
		Direct  bool          `mapstructure:"direct" json:"direct"`
		Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	} `mapstructure:"mongo" json:"mongo"`

	Broker struct {
		Mode           BrokerMode    `mapstructure:"mode" json:"mode"`
		Codec          string        `mapstructure:"codec" json:"codec"`
		Channels       []string      `mapstructure:"channels" json:"channels"`
		QueueSize      int           `mapstructure:"queue_size" json:"queue_size"`
		RetryInterval  time.Duration `mapstructure:"retry_interval" json:"retry_interval"`
		PublishTimeout time.Duration `mapstructure:"publish_timeout" json:"publish_timeout"`
	} `mapstructure:"broker" json:"broker"`

	Realtime struct {
		SendBuffer     int           `mapstructure:"send_buffer" json:"send_buffer"`
		PingInterval   time.Duration `mapstructure:"ping_interval" json:"ping_interval"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
		MaxMessageSize int64         `mapstructure:"max_message_size" json:"max_message_size"`
	} `mapstructure:"realtime" json:"realtime"`

	Health struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"health" json:"health"`

	PProf struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"pprof" json:"pprof"`

	Monitoring struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`

	Http struct {
		Addr string `mapstructure:"addr" json:"addr"`
		Port int    `mapstructure:"port" json:"port"`

		Cookie struct {
			Whitelist []string `mapstructure:"whitelist" json:"whitelist"`
		} `mapstructure:"cookie" json:"cookie"`
	} `mapstructure:"http" json:"http"`
}

type LogFile struct {
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

// Default returns the configuration used when neither a file nor the environment sets a value
func Default() Config {
	c := Config{
		Level:      "info",
		ConfigFile: "config.yaml",
	}

	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28

	c.Redis.Addresses = []string{"localhost:6379"}
	c.NATS.URL = "nats://localhost:4222"
	c.NATS.Name = "socialsync-api"

	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.DB = "socialsync"
	c.Mongo.Timeout = 10 * time.Second

	c.Broker.Mode = BrokerModeRedis
	c.Broker.Codec = "json"
	c.Broker.Channels = []string{"post-events", "user-events", "activity-logs"}
	c.Broker.QueueSize = 1024
	c.Broker.RetryInterval = 5 * time.Second
	c.Broker.PublishTimeout = 2 * time.Second

	c.Realtime.SendBuffer = 64
	c.Realtime.PingInterval = 25 * time.Second
	c.Realtime.WriteTimeout = 10 * time.Second
	c.Realtime.MaxMessageSize = 64 * 1024

	c.Health.Bind = "0.0.0.0:9100"
	c.Monitoring.Bind = "0.0.0.0:9101"
	c.PProf.Bind = "0.0.0.0:9102"

	c.Http.Addr = "0.0.0.0"
	c.Http.Port = 5000
	c.Http.Cookie.Whitelist = []string{"*"}

	return c
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}
