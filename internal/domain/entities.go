package domain

import "time"

// Frequency описывает режим напоминаний о публикации.
type Frequency string

const (
	// FrequencyManual отключает напоминания.
	FrequencyManual Frequency = "manual"
	// FrequencyDaily включает ежедневные напоминания.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly включает еженедельные напоминания.
	FrequencyWeekly Frequency = "weekly"
)

// Valid проверяет, что значение частоты известно системе.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyManual, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// TopicCandidate представляет короткую фразу-кандидата из заголовка источника.
type TopicCandidate struct {
	Text string
}

// UsedTopicRecord хранит использованную тему и момент использования.
type UsedTopicRecord struct {
	Topic  string    `json:"topic"`
	UsedAt time.Time `json:"used_at"`
}

// GeneratedPost содержит синтезированный текст поста и сопутствующие данные.
type GeneratedPost struct {
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings описывает сохранённые настройки генерации.
// Значения валидируются на внешней границе (HTTP), сюда приходят готовыми.
type Settings struct {
	Provider     string    `json:"provider"`
	GroqKey      string    `json:"groq_key,omitempty"`
	GeminiKey    string    `json:"gemini_key,omitempty"`
	UnsplashKey  string    `json:"unsplash_key,omitempty"`
	Frequency    Frequency `json:"frequency"`
	TopicsFocus  string    `json:"topics_focus,omitempty"`
	Sources      []string  `json:"sources"`
	EnableImages bool      `json:"enable_images"`
	IsSetup      bool      `json:"is_setup"`
}

// ProviderKey возвращает ключ для выбранного провайдера генерации.
func (s Settings) ProviderKey() string {
	switch s.Provider {
	case ProviderGroq:
		return s.GroqKey
	case ProviderGemini:
		return s.GeminiKey
	}
	return ""
}

const (
	// ProviderGroq генерирует текст через Groq (OpenAI-совместимый API).
	ProviderGroq = "groq"
	// ProviderGemini генерирует текст через Google Gemini.
	ProviderGemini = "gemini"
	// ProviderTemplate генерирует текст локальными шаблонами.
	ProviderTemplate = "template"
)

// PublishRequest пересекает границу контекстов: задание агенту на публикацию.
type PublishRequest struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// AutomationResult возвращается агентом автоматизации по итогам публикации.
type AutomationResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ScheduledTrigger описывает установленный повторяющийся триггер напоминаний.
// Сохраняется в хранилище, чтобы перезапуск процесса продолжил расписание.
type ScheduledTrigger struct {
	Frequency Frequency     `json:"frequency"`
	NextFire  time.Time     `json:"next_fire"`
	Period    time.Duration `json:"period"`
}
