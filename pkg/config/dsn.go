package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// postgresURL is the subset of a postgres:// connection URL this service
// consumes. Query parameters other than sslmode are ignored.
type postgresURL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// parseDatabaseURL parses a 12-factor style postgres:// or postgresql://
// connection URL. Port defaults to 5432 and sslmode to disable when absent.
func parseDatabaseURL(rawURL string) (*postgresURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}

	p := &postgresURL{
		Host:     u.Hostname(),
		Port:     5432,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  "disable",
	}

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in database URL: %w", err)
		}
		p.Port = port
	}

	if u.User != nil {
		p.User = u.User.Username()
		p.Password, _ = u.User.Password()
	}

	if mode := u.Query().Get("sslmode"); mode != "" {
		p.SSLMode = mode
	}

	return p, nil
}

// libpqDSN renders the URL as the key/value DSN lib/pq expects.
func (p *postgresURL) libpqDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}
