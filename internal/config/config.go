package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config glues all configuration sections together.
type Config struct {
	Server  Server  `toml:"server"`
	Mongo   Mongo   `toml:"mongo"`
	Auth    Auth    `toml:"auth"`
	Storage Storage `toml:"storage"`
	Cache   Cache   `toml:"cache"`
	Images  Images  `toml:"images"`
	Log     Log     `toml:"log"`
}

type Server struct {
	Port        int      `toml:"port"`
	BasePath    string   `toml:"base_path"`
	Lambda      bool     `toml:"lambda"`
	CORSOrigins []string `toml:"cors_origins"`
	Metrics     bool     `toml:"metrics"`
	MetricsPath string   `toml:"metrics_path"`
}

type Mongo struct {
	URI      string `toml:"uri"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type Auth struct {
	// Provider is "jwt" (shared secret) or "remote" (identity service lookup).
	Provider      string   `toml:"provider"`
	JWTSecret     string   `toml:"jwt_secret"`
	Issuer        string   `toml:"issuer"`
	LookupURL     string   `toml:"lookup_url"`
	APIKey        string   `toml:"api_key"`
	TokenTTL      Duration `toml:"token_ttl"`
	AdminCacheTTL Duration `toml:"admin_cache_ttl"`
	// AdminEmails are granted admin rights at startup.
	AdminEmails []string `toml:"admin_emails"`
}

type Storage struct {
	// Backend is "local" or "s3".
	Backend   string   `toml:"backend"`
	LocalDir  string   `toml:"local_dir"`
	PublicURL string   `toml:"public_url"`
	Bucket    string   `toml:"bucket"`
	Region    string   `toml:"region"`
	Endpoint  string   `toml:"endpoint"`
	URLExpiry Duration `toml:"url_expiry"`
	// Static keys for MinIO and similar; the default AWS chain is used
	// when empty.
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

type Cache struct {
	// Backend is one of mongo, redis, dynamodb, postgres or none.
	Backend        string   `toml:"backend"`
	TTL            Duration `toml:"ttl"`
	RedisAddr      string   `toml:"redis_addr"`
	RedisPassword  string   `toml:"redis_password"`
	RedisDB        int      `toml:"redis_db"`
	DynamoTable    string   `toml:"dynamo_table"`
	DynamoRegion   string   `toml:"dynamo_region"`
	DynamoEndpoint string   `toml:"dynamo_endpoint"`
	PostgresDSN    string   `toml:"postgres_dsn"`
}

type Images struct {
	MaxWidth       int   `toml:"max_width"`
	Quality        int   `toml:"quality"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
	MaxPixels      int   `toml:"max_pixels"`
}

type Log struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Duration reads Go duration strings such as "30s" from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Server: Server{
			Port:        8080,
			BasePath:    "/api",
			MetricsPath: "/metrics",
		},
		Mongo: Mongo{
			Host:     "localhost",
			Port:     27017,
			Database: "ginblog",
		},
		Auth: Auth{
			Provider:      "jwt",
			Issuer:        "ginblog",
			TokenTTL:      Duration{24 * time.Hour},
			AdminCacheTTL: Duration{time.Minute},
		},
		Storage: Storage{
			Backend:   "local",
			LocalDir:  "./data/uploads",
			PublicURL: "/files",
			URLExpiry: Duration{time.Hour},
		},
		Cache: Cache{
			Backend:     "mongo",
			TTL:         Duration{5 * time.Minute},
			DynamoTable: "ginblog_cache",
		},
		Images: Images{
			MaxWidth:       1600,
			Quality:        82,
			MaxUploadBytes: 10 << 20,
			MaxPixels:      40_000_000,
		},
	}
}

// Load reads .env, then the TOML file at path (skipped when it does not
// exist), then environment overrides, and validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Warn("Config file not found, using defaults", slog.String("path", path))
		case err != nil:
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				slog.Warn("Config has unknown keys", slog.Any("keys", undecoded))
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"GINBLOG_BASE_PATH":  &c.Server.BasePath,
		"MONGO_URI":          &c.Mongo.URI,
		"MONGO_DATABASE":     &c.Mongo.Database,
		"AUTH_PROVIDER":      &c.Auth.Provider,
		"JWT_SECRET":         &c.Auth.JWTSecret,
		"JWT_ISSUER":         &c.Auth.Issuer,
		"AUTH_LOOKUP_URL":    &c.Auth.LookupURL,
		"AUTH_API_KEY":       &c.Auth.APIKey,
		"STORAGE_BACKEND":    &c.Storage.Backend,
		"STORAGE_LOCAL_DIR":  &c.Storage.LocalDir,
		"STORAGE_PUBLIC_URL": &c.Storage.PublicURL,
		"S3_BUCKET":          &c.Storage.Bucket,
		"S3_REGION":          &c.Storage.Region,
		"S3_ENDPOINT":        &c.Storage.Endpoint,
		"S3_ACCESS_KEY_ID":   &c.Storage.AccessKeyID,
		"S3_SECRET_KEY":      &c.Storage.SecretAccessKey,
		"CACHE_BACKEND":      &c.Cache.Backend,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"REDIS_PASSWORD":     &c.Cache.RedisPassword,
		"DYNAMODB_TABLE":     &c.Cache.DynamoTable,
		"DYNAMODB_REGION":    &c.Cache.DynamoRegion,
		"DYNAMODB_ENDPOINT":  &c.Cache.DynamoEndpoint,
		"CACHE_POSTGRES_DSN": &c.Cache.PostgresDSN,
		"GINBLOG_LOG_FILE":   &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":     &c.Server.Port,
		"REDIS_DB": &c.Cache.RedisDB,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"LAMBDA_RUNTIME":  &c.Server.Lambda,
		"GINBLOG_METRICS": &c.Server.Metrics,
		"GINBLOG_DEBUG":   &c.Log.Debug,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		if err := c.Cache.TTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("ADMIN_EMAILS"); ok && v != "" {
		c.Auth.AdminEmails = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if !c.Server.Lambda && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		errs = append(errs, errors.New("server.base_path must start with /"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo.database is required"))
	}

	switch c.Auth.Provider {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required for the jwt provider"))
		}
	case "remote":
		if c.Auth.LookupURL == "" {
			errs = append(errs, errors.New("auth.lookup_url is required for the remote provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth.provider %q", c.Auth.Provider))
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("storage.local_dir is required for local storage"))
		}
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	switch c.Cache.Backend {
	case "mongo", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis cache"))
		}
	case "dynamodb":
		if c.Cache.DynamoTable == "" {
			errs = append(errs, errors.New("cache.dynamo_table is required for the dynamodb cache"))
		}
	case "postgres":
		if c.Cache.PostgresDSN == "" {
			errs = append(errs, errors.New("cache.postgres_dsn is required for the postgres cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	if c.Images.MaxWidth <= 0 {
		errs = append(errs, errors.New("images.max_width must be positive"))
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		errs = append(errs, errors.New("images.quality must be between 1 and 100"))
	}
	if c.Images.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("images.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}
