package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Board is one career-site board handled by an adapter.
type Board struct {
	Name    string `yaml:"name"`    // adapter-unique source name, e.g. "mastercard"
	Company string `yaml:"company"` // display name
	URL     string `yaml:"url"`
}

// Selectors configures the generic CSS-selector adapter for a static board.
type Selectors struct {
	Item       string `yaml:"item"` // repeated element, one per posting
	Title      string `yaml:"title"`
	Location   string `yaml:"location"`
	Link       string `yaml:"link"`      // anchor inside item
	IDAttr     string `yaml:"id_attr"`   // attribute on item carrying the native id, optional
	DatePosted string `yaml:"date_posted"` // optional
}

type StaticSite struct {
	Board     `yaml:",inline"`
	Selectors Selectors `yaml:"selectors"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Database struct {
		Path string `yaml:"path"` // relative to data_dir unless absolute
	} `yaml:"database"`

	Scheduler struct {
		IntervalHours     int `yaml:"interval_hours"`
		MaxConcurrentRuns int `yaml:"max_concurrent_runs"` // fixed at 1, validated
	} `yaml:"scheduler"`

	Notifications struct {
		Enabled             bool   `yaml:"enabled"`
		NotifyOnZeroResults bool   `yaml:"notify_on_zero_results"`
		SMTPHost            string `yaml:"smtp_host"`
		SMTPPort            int    `yaml:"smtp_port"`
		Username            string `yaml:"username"`
		From                string `yaml:"from"`
		To                  string `yaml:"to"`
		UseTLS              bool   `yaml:"use_tls"`
	} `yaml:"notifications"`

	Limits struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"limits"`

	Sources struct {
		Phenom struct {
			Enabled bool    `yaml:"enabled"`
			Boards  []Board `yaml:"boards"`
		} `yaml:"phenom"`
		Workday struct {
			Enabled bool    `yaml:"enabled"`
			Boards  []Board `yaml:"boards"`
		} `yaml:"workday"`
		Static struct {
			Enabled bool         `yaml:"enabled"`
			Sites   []StaticSite `yaml:"sites"`
		} `yaml:"static"`
	} `yaml:"sources"`

	EmailAlerts struct {
		Enabled  bool   `yaml:"enabled"`
		IMAPHost string `yaml:"imap_host"`
		IMAPPort int    `yaml:"imap_port"`
		Username string `yaml:"username"`
		Mailbox  string `yaml:"mailbox"`
		MaxFetch int    `yaml:"max_fetch"`
	} `yaml:"email_alerts"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.IntervalHours) * time.Hour
}
