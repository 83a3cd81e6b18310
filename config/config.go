package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Log struct {
		Level string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Store struct {
		// memory | redis
		Driver     string
		TTLSeconds int `mapstructure:"ttl_seconds"`
	}
	Simulation struct {
		Games       int
		Players     int
		MaxTurns    int `mapstructure:"max_turns"`
		Seed        int64
		Concurrency int
	}
}

var C Config

// EnvPrefix 环境变量前缀，如 SEQUENCE_REDIS_ADDR
const EnvPrefix = "SEQUENCE"

var defaults = map[string]any{
	"log.level":              "info",
	"redis.addr":             "localhost:6379",
	"redis.password":         "",
	"redis.db":               0,
	"store.driver":           "memory",
	"store.ttl_seconds":      24 * 60 * 60,
	"simulation.games":       4,
	"simulation.players":     2,
	"simulation.max_turns":   500,
	"simulation.seed":        0,
	"simulation.concurrency": 2,
}

// flagKeys 命令行 flag -> 配置 key
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"store":       "store.driver",
	"redis-addr":  "redis.addr",
	"games":       "simulation.games",
	"players":     "simulation.players",
	"max-turns":   "simulation.max_turns",
	"seed":        "simulation.seed",
	"concurrency": "simulation.concurrency",
}

// Load 读取顺序（后者覆盖前者）：默认值 < 配置文件 < .env/环境变量 < 命令行 flag。
// path 为空或文件不存在时只用默认值与环境变量。
func Load(path string, flags *pflag.FlagSet) error {
	// .env 可选
	_ = godotenv.Load()

	viper.Reset()
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return err
				}
			}
		}
	}

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return err
	}
	C = c
	return nil
}
