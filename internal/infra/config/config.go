package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Amsterdam"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Telegram struct {
		Token  string `envconfig:"TG_BOT_TOKEN"`
		ChatID int64  `envconfig:"TG_CHAT_ID"`
	} `envconfig:""`

	Providers struct {
		Groq     string `envconfig:"GROQ_API_KEY"`
		Gemini   string `envconfig:"GEMINI_API_KEY"`
		Unsplash string `envconfig:"UNSPLASH_ACCESS_KEY"`
	} `envconfig:""`

	Browser struct {
		ExecPath string        `envconfig:"BROWSER_EXEC_PATH" default:"/usr/bin/chromium-browser"`
		FeedURL  string        `envconfig:"FEED_URL" default:"https://www.linkedin.com/feed/"`
		Headless bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
		Timeout  time.Duration `envconfig:"BROWSER_STEP_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Schedule struct {
		Hour    int `envconfig:"SCHEDULE_HOUR" default:"9"`
		Minute  int `envconfig:"SCHEDULE_MINUTE" default:"0"`
		Weekday int `envconfig:"SCHEDULE_WEEKDAY" default:"1"`
	} `envconfig:""`

	Queues struct {
		Publish string `envconfig:"PUBLISH_QUEUE" default:"publish_jobs"`
	} `envconfig:""`

	Limits struct {
		HNStories     int `envconfig:"HN_TOP_STORIES" default:"15"`
		RedditPerSub  int `envconfig:"REDDIT_POSTS_PER_SUB" default:"10"`
		FetchRetries  int `envconfig:"FETCH_RETRIES" default:"3"`
		PublishWaitS  int `envconfig:"PUBLISH_WAIT_SECONDS" default:"120"`
		HistoryDays   int `envconfig:"TOPIC_HISTORY_DAYS" default:"30"`
		DraftTTLHours int `envconfig:"DRAFT_TTL_HOURS" default:"24"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
