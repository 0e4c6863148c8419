package database

import (
	"fmt"
	"net/url"

	"github.com/pushsock/pushsock/internal/config"
)

// ConnString builds the recorder's PostgreSQL connection URL. Userinfo
// is escaped through url.URL, so passwords may contain reserved
// characters. sslmode is emitted only when set; config defaults fill it
// on the normal load path.
func ConnString(cfg config.DBConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = "sslmode=" + cfg.SSLMode
	}
	return u.String()
}
