// Package config loads zhreader settings from YAML and the environment.
package config

import (
	"time"

	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/japaniel/zhreader/pkg/reader"
	"github.com/japaniel/zhreader/pkg/render"
	"github.com/japaniel/zhreader/pkg/segmenter"
	"github.com/redis/go-redis/v9"
)

// Config is the root application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Reader     ReaderConfig     `yaml:"reader"`
	Render     RenderConfig     `yaml:"render"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// DatabaseConfig holds the sqlite record store location.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"zhreader.db"`
}

// RedisConfig holds the dictionary cache connection settings.
type RedisConfig struct {
	Addr         string        `yaml:"addr"          env:"REDIS_ADDR"          env-default:"localhost:6379"`
	Password     string        `yaml:"password"      env:"REDIS_PASSWORD"`
	DB           int           `yaml:"db"            env:"REDIS_DB"            env-default:"0"`
	DialTimeout  time.Duration `yaml:"dial_timeout"  env:"REDIS_DIAL_TIMEOUT"  env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout"  env:"REDIS_READ_TIMEOUT"  env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// Options converts the section into go-redis options.
func (c RedisConfig) Options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// SegmenterConfig holds both sides of the segmentation protocol.
type SegmenterConfig struct {
	Addr        string        `yaml:"addr"         env:"SEGMENTER_ADDR"         env-default:"localhost:9001"`
	Timeout     time.Duration `yaml:"timeout"      env:"SEGMENTER_TIMEOUT"      env-default:"10s"`
	MaxResponse uint64        `yaml:"max_response" env:"SEGMENTER_MAX_RESPONSE" env-default:"67108864"`
	Listen      string        `yaml:"listen"       env:"SEGMENTER_LISTEN"       env-default:"127.0.0.1:9001"`
	MaxRequest  int64         `yaml:"max_request"  env:"SEGMENTER_MAX_REQUEST"  env-default:"16777216"`
	ReadIdle    time.Duration `yaml:"read_idle"    env:"SEGMENTER_READ_IDLE"    env-default:"200ms"`
}

// Client returns a segmenter client for the configured address.
func (c SegmenterConfig) Client() *segmenter.Client {
	cl := segmenter.NewClient(c.Addr, c.Timeout)
	if c.MaxResponse > 0 {
		cl.MaxResponse = c.MaxResponse
	}
	return cl
}

// ReaderConfig holds render concurrency and failure handling settings.
type ReaderConfig struct {
	Workers         int           `yaml:"workers"          env:"READER_WORKERS"          env-default:"8"`
	RenderTimeout   time.Duration `yaml:"render_timeout"   env:"READER_RENDER_TIMEOUT"   env-default:"30s"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"    env:"READER_RETRY_BACKOFF"    env-default:"200ms"`
	BreakerFailures uint32        `yaml:"breaker_failures" env:"READER_BREAKER_FAILURES" env-default:"5"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"  env:"READER_BREAKER_TIMEOUT"  env-default:"30s"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"    env:"READER_FETCH_TIMEOUT"    env-default:"30s"`
}

// Options converts the section into reader service options.
func (c ReaderConfig) Options() reader.Options {
	return reader.Options{
		Workers:         c.Workers,
		RenderTimeout:   c.RenderTimeout,
		RetryBackoff:    c.RetryBackoff,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}

// RenderConfig holds the icons linked from phrase fragments.
type RenderConfig struct {
	SoundIcon string `yaml:"sound_icon" env:"RENDER_SOUND_ICON" env-default:"/static/img/volume-up-fill.svg"`
	SaveIcon  string `yaml:"save_icon"  env:"RENDER_SAVE_ICON"  env-default:"/static/img/download.svg"`
}

// Options converts the section into renderer options.
func (c RenderConfig) Options() render.Options {
	return render.Options{SoundIcon: c.SoundIcon, SaveIcon: c.SaveIcon}
}

// DictionaryConfig holds where the CEDICT data comes from and how it is imported.
type DictionaryConfig struct {
	Path         string `yaml:"path"          env:"DICT_PATH"          env-default:"cedict_ts.u8"`
	DownloadURL  string `yaml:"download_url"  env:"DICT_DOWNLOAD_URL"`
	RadicalsPath string `yaml:"radicals_path" env:"DICT_RADICALS_PATH"`
	BatchSize    int    `yaml:"batch_size"    env:"DICT_BATCH_SIZE"    env-default:"500"`
}

// URL returns the configured download URL or the MDBG default.
func (c DictionaryConfig) URL() string {
	if c.DownloadURL == "" {
		return dictionary.DefaultCEDICTURL
	}
	return c.DownloadURL
}
