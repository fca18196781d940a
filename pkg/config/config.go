package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/draftdesk/draftdesk-backend/pkg/enums"
)

const (
	EnvPrefix = "DRAFTDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Telegram     TelegramConfig
	Publishing   PublishingConfig
	Scheduler    SchedulerConfig
	Sessions     SessionsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DRAFTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"DRAFTDESK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DRAFTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DRAFTDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind        string `envconfig:"DRAFTDESK_SERVICE_KIND" default:"api"`
	MetricsAddr string `envconfig:"DRAFTDESK_SERVICE_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"DRAFTDESK_DB_DSN"`
	Driver string `envconfig:"DRAFTDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DRAFTDESK_DB_HOST"`
	Port     int    `envconfig:"DRAFTDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"DRAFTDESK_DB_USER"`
	Password string `envconfig:"DRAFTDESK_DB_PASSWORD"`
	Name     string `envconfig:"DRAFTDESK_DB_NAME"`
	SSLMode  string `envconfig:"DRAFTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DRAFTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRAFTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DRAFTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DRAFTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DRAFTDESK_REDIS_URL"`
	Address      string        `envconfig:"DRAFTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"DRAFTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"DRAFTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DRAFTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DRAFTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DRAFTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DRAFTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DRAFTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"DRAFTDESK_TELEGRAM_BOT_TOKEN"`
}

// PublishingConfig maps draft states to moderation-group topics and names the
// broadcast channel. A zero topic id means the state has no topic configured,
// which is a fatal error at the point of use.
type PublishingConfig struct {
	GroupID   int64 `envconfig:"DRAFTDESK_PUBLISHING_GROUP_ID"`
	ChannelID int64 `envconfig:"DRAFTDESK_PUBLISHING_CHANNEL_ID"`

	InboxTopicID     int64 `envconfig:"DRAFTDESK_TOPIC_INBOX"`
	EditingTopicID   int64 `envconfig:"DRAFTDESK_TOPIC_EDITING"`
	ReadyTopicID     int64 `envconfig:"DRAFTDESK_TOPIC_READY"`
	ScheduledTopicID int64 `envconfig:"DRAFTDESK_TOPIC_SCHEDULED"`
	PublishedTopicID int64 `envconfig:"DRAFTDESK_TOPIC_PUBLISHED"`
	ArchiveTopicID   int64 `envconfig:"DRAFTDESK_TOPIC_ARCHIVE"`
}

// TopicFor resolves the moderation topic for the given draft state.
func (p PublishingConfig) TopicFor(state enums.DraftState) (int64, error) {
	var topic int64
	switch state {
	case enums.DraftStateInbox:
		topic = p.InboxTopicID
	case enums.DraftStateEditing:
		topic = p.EditingTopicID
	case enums.DraftStateReady:
		topic = p.ReadyTopicID
	case enums.DraftStateScheduled:
		topic = p.ScheduledTopicID
	case enums.DraftStatePublished:
		topic = p.PublishedTopicID
	case enums.DraftStateArchive:
		topic = p.ArchiveTopicID
	default:
		return 0, fmt.Errorf("no topic mapping for state %q", state)
	}
	if topic == 0 {
		return 0, fmt.Errorf("topic for state %q is not configured", state)
	}
	return topic, nil
}

// OutputChannel returns the broadcast channel id.
func (p PublishingConfig) OutputChannel() (int64, error) {
	if p.ChannelID == 0 {
		return 0, fmt.Errorf("output channel is not configured")
	}
	return p.ChannelID, nil
}

type SchedulerConfig struct {
	PollInterval       time.Duration `envconfig:"DRAFTDESK_SCHEDULER_POLL_INTERVAL" default:"5s"`
	BatchSize          int           `envconfig:"DRAFTDESK_SCHEDULER_BATCH_SIZE" default:"10"`
	MaxAttempts        int           `envconfig:"DRAFTDESK_SCHEDULER_MAX_ATTEMPTS" default:"5"`
	RetryBackoff       time.Duration `envconfig:"DRAFTDESK_SCHEDULER_RETRY_BACKOFF" default:"1m"`
	RecoverFailedAfter time.Duration `envconfig:"DRAFTDESK_SCHEDULER_RECOVER_FAILED_AFTER" default:"10m"`
}

type SessionsConfig struct {
	IdleTTL time.Duration `envconfig:"DRAFTDESK_SESSIONS_IDLE_TTL" default:"6h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DRAFTDESK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"DRAFTDESK_DB_HOST": db.Host,
		"DRAFTDESK_DB_USER": db.User,
		"DRAFTDESK_DB_NAME": db.Name,
	}
	for _, env := range []string{"DRAFTDESK_DB_HOST", "DRAFTDESK_DB_USER", "DRAFTDESK_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either DRAFTDESK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
