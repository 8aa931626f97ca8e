package ginblog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
)

type SQLConfig struct {
	DSN      string
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

func NewSQLConfig() *SQLConfig {
	return &SQLConfig{
		Host:    "localhost",
		Port:    5432,
		SSLMode: "disable",
	}
}

// WithDSN takes precedence over the individual connection fields.
func (c *SQLConfig) WithDSN(dsn string) *SQLConfig {
	c.DSN = dsn
	return c
}

func (c *SQLConfig) WithCredentials(username, password string) *SQLConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *SQLConfig) WithHost(host string, port int) *SQLConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *SQLConfig) WithDatabase(database string) *SQLConfig {
	c.Database = database
	return c
}

func (c *SQLConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

func (c *SQLConfig) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
