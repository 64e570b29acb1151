package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StoreDiskv  = "diskv"
	StoreSqlite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"

	// RemoteLocal as --remote posts surveys into the ingest database at
	// --db-url in process, without a server.
	RemoteLocal = "local"
)

type Config struct {
	// device side
	DataDir             string
	Store               string
	RedisAddr           string
	Remote              string
	Endpoint            string
	DraftsKey           string
	SurveysKey          string
	ProbeURL            string
	Offline             bool
	Location            string
	SpecializedTemplate int
	Catalog             string
	Timeout             time.Duration

	// ingest server side
	Addr  string
	DBUrl string

	Debug bool
}

// BindFlags registers every setting on fs. Values are resolved by Load.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("data-dir", "~/.fieldsurvey", "directory holding local drafts and surveys")
	fs.String("store", StoreDiskv, "local store backend: diskv, sqlite, redis or memory")
	fs.String("redis-addr", "localhost:6379", "redis address for the redis store")
	fs.String("remote", "http://localhost:8080/api", "base URL of the survey ingest endpoint, or \"local\" to post into --db-url directly")
	fs.String("endpoint", "uploadSurveys", "endpoint surveys are posted to, relative to --remote")
	fs.String("drafts-key", "drafts", "storage key for drafts")
	fs.String("surveys-key", "uploadSurveys", "storage key for surveys")
	fs.String("probe-url", "", "URL probed for connectivity (default <remote>/health)")
	fs.Bool("offline", false, "report the network as disconnected")
	fs.String("location", "", "fixed device position as \"lat,lon\"")
	fs.Int("specialized-template", 1, "id of the template that requires a specialized beneficiary")
	fs.String("catalog", "templates.yaml", "path to the template catalog")
	fs.Duration("timeout", 10*time.Second, "timeout for each remote request")
	fs.String("host", "0.0.0.0", "listen host name")
	fs.Uint("port", 8080, "listen port number")
	fs.String("db-url", "received.sqlite", "path to the ingest SQLite3 DB file")
	fs.Bool("debug", false, "log at DEBUG level")
}

// Load resolves settings from flags, FIELDSURVEY_* environment variables
// (a .env file is read first when present) and an optional
// .fieldsurvey.yaml in the working or home directory.
func Load(fs *pflag.FlagSet) (cfg Config, err error) {
	if err = godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("config.dotenv: %w", err)
	}
	err = nil

	v := viper.New()
	v.SetConfigName(".fieldsurvey")
	v.SetEnvPrefix("FIELDSURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.AddConfigPath(".")
	if home, herr := homedir.Dir(); herr == nil {
		v.AddConfigPath(home)
	}
	if err = v.BindPFlags(fs); err != nil {
		return cfg, fmt.Errorf("config.bind: %w", err)
	}
	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config.read: %w", err)
		}
		err = nil
	}

	cfg.DataDir, err = homedir.Expand(v.GetString("data-dir"))
	if err != nil {
		return cfg, fmt.Errorf("config.data_dir: %w", err)
	}
	cfg.Store = v.GetString("store")
	cfg.RedisAddr = v.GetString("redis-addr")
	cfg.Remote = strings.TrimRight(v.GetString("remote"), "/")
	cfg.Endpoint = strings.Trim(v.GetString("endpoint"), "/")
	cfg.DraftsKey = v.GetString("drafts-key")
	cfg.SurveysKey = v.GetString("surveys-key")
	cfg.ProbeURL = v.GetString("probe-url")
	cfg.Offline = v.GetBool("offline")
	cfg.Location = v.GetString("location")
	cfg.SpecializedTemplate = v.GetInt("specialized-template")
	cfg.Catalog = v.GetString("catalog")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.DBUrl = v.GetString("db-url")
	cfg.Debug = v.GetBool("debug")
	cfg.Addr = net.JoinHostPort(v.GetString("host"), strconv.Itoa(int(v.GetUint("port"))))

	if cfg.ProbeURL == "" && !cfg.LocalRemote() {
		cfg.ProbeURL = cfg.Remote + "/health"
	}

	err = cfg.validate()
	return
}

func (cfg Config) validate() error {
	switch cfg.Store {
	case StoreDiskv, StoreSqlite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}
	if cfg.DraftsKey == "" || cfg.SurveysKey == "" {
		return errors.New("storage keys must not be empty")
	}
	if cfg.DraftsKey == cfg.SurveysKey {
		return errors.New("drafts and surveys must use different storage keys")
	}
	if cfg.Endpoint == "" {
		return errors.New("missing parameter --endpoint")
	}
	return nil
}

// LocalRemote reports whether surveys go to an in-process ingest server.
func (cfg Config) LocalRemote() bool {
	return cfg.Remote == RemoteLocal
}

// SqlitePath is the device-side sqlite file used by the sqlite store.
func (cfg Config) SqlitePath() string {
	return filepath.Join(cfg.DataDir, "device.sqlite")
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
