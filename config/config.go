// ABOUTME: Typed configuration loaded from environment variables
// ABOUTME: Covers spreadsheet addressing, sheet names, cache TTL, calendars and server settings
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sheetcrm. Everything comes from the
// environment (optionally seeded from a .env file by main); the spreadsheet
// id is the one required value.
type Config struct {
	Port     int    `env:"PORT" env-default:"8080"`
	BindAddr string `env:"BIND_ADDR" env-default:""`

	// The spreadsheet that backs every entity.
	SpreadsheetID string `env:"SPREADSHEET_ID"`

	// How long a reader cache entry stays valid after population.
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"5m"`

	Sheets Sheets

	// Calendar integration. HolidayCalendarID is the public holiday
	// calendar; PersonalCalendarID is optional and skipped when empty.
	HolidayCalendarID  string `env:"HOLIDAY_CALENDAR_ID" env-default:"zh-tw.taiwan#holiday@group.v.calendar.google.com"`
	PersonalCalendarID string `env:"PERSONAL_CALENDAR_ID" env-default:""`
	Timezone           string `env:"TIMEZONE" env-default:"Asia/Taipei"`

	// Google API credentials: either a service account key file, or an
	// OAuth client (id/secret + stored token) as a fallback.
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" env-default:""`
	OAuthClientID   string `env:"GOOGLE_CLIENT_ID" env-default:""`
	OAuthSecret     string `env:"GOOGLE_CLIENT_SECRET" env-default:""`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`

	ContactsPerPage int `env:"CONTACTS_PER_PAGE" env-default:"20"`
}

// Sheets names the physical worksheet each entity lives in. Row 1 of every
// sheet is a header.
type Sheets struct {
	Contacts        string `env:"SHEET_CONTACTS" env-default:"原始名片資料"`
	ContactList     string `env:"SHEET_CONTACT_LIST" env-default:"聯絡人總表"`
	Companies       string `env:"SHEET_COMPANIES" env-default:"公司總表"`
	Opportunities   string `env:"SHEET_OPPORTUNITIES" env-default:"機會案件總表"`
	Interactions    string `env:"SHEET_INTERACTIONS" env-default:"互動紀錄"`
	OppContactLinks string `env:"SHEET_OPP_CONTACT_LINKS" env-default:"機會聯絡人關聯"`
	SystemConfig    string `env:"SHEET_SYSTEM_CONFIG" env-default:"系統設定"`
	Users           string `env:"SHEET_USERS" env-default:"使用者名冊"`
	Weekly          string `env:"SHEET_WEEKLY" env-default:"週間業務"`

	// One sheet per event log type; each has its own column layout.
	EventLogsGeneral string `env:"SHEET_EVENT_LOGS_GENERAL" env-default:"事件紀錄_一般"`
	EventLogsIoT     string `env:"SHEET_EVENT_LOGS_IOT" env-default:"事件紀錄_IOT"`
	EventLogsDT      string `env:"SHEET_EVENT_LOGS_DT" env-default:"事件紀錄_DT"`
	EventLogsDX      string `env:"SHEET_EVENT_LOGS_DX" env-default:"事件紀錄_DX"`
	EventLogsLegacy  string `env:"SHEET_EVENT_LOGS_LEGACY" env-default:"事件紀錄總表"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}
	return &cfg, nil
}
