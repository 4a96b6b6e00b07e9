package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DBPath         string
	ConfigDir      string
	FallbackDir    string
	TokenSecret    string
	Debug          bool
	ValidateOnly   bool
	SendGridKey    string
	MailFrom       string
	MailFromName   string
	ReportTimezone *time.Location
	MailTimeout    time.Duration
}

// ParseFlags reads process flags, then fills mail settings and secrets
// from the environment (a .env file is loaded if present).
func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name")
	var port uint
	flag.UintVar(&port, "port", 8080, "listen port number")
	flag.StringVar(&cfg.DBPath, "db-path", "pulseboard.sqlite", "path to SQLite3 DB file")
	flag.StringVar(&cfg.ConfigDir, "config-dir", "config-data", "directory holding recipients.json and questions.json")
	flag.StringVar(&cfg.FallbackDir, "fallback-dir", "failed-reports", "directory for reports that could not be mailed")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.BoolVar(&cfg.ValidateOnly, "validate-config", false, "validate config files and exit")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if err = godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return
		}
		err = nil
	}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	cfg.SendGridKey = os.Getenv("SENDGRID_API_KEY")
	cfg.MailFrom = os.Getenv("MAIL_FROM")
	if cfg.MailFrom == "" {
		cfg.MailFrom = "reports@pulseboard.local"
	}
	cfg.MailFromName = os.Getenv("MAIL_FROM_NAME")
	if cfg.MailFromName == "" {
		cfg.MailFromName = "Pulseboard Reports"
	}

	tz := os.Getenv("REPORT_TZ")
	if tz == "" {
		tz = "Asia/Kolkata"
	}
	cfg.ReportTimezone, err = time.LoadLocation(tz)
	if err != nil {
		return
	}

	cfg.MailTimeout = 60 * time.Second

	if cfg.TokenSecret == "" && !cfg.ValidateOnly {
		err = errors.New("missing environment variable TOKEN_SECRET")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
