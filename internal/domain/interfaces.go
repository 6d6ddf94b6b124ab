package domain

import (
	"context"
	"time"
)

// TopicSource выгружает свежие заголовки одного источника трендов.
type TopicSource interface {
	Name() string
	Fetch(ctx context.Context) ([]string, error)
}

// Generator строит текст поста по теме.
type Generator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// ImageProvider ищет картинку-иллюстрацию к теме.
type ImageProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// Ledger отвечает за историю использованных тем.
type Ledger interface {
	Record(ctx context.Context, topic string) error
	ListActive(ctx context.Context) ([]UsedTopicRecord, error)
	IsUsed(ctx context.Context, candidate string) (bool, error)
	Clear(ctx context.Context) error
}

// KVStore прячет key-value хранилище за единым интерфейсом.
// Scope выбирает область: durable переживает перезапуски, session живёт по TTL.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// PublishBus доставляет задания на публикацию в контекст автоматизации
// и возвращает коррелированный результат.
type PublishBus interface {
	Publish(ctx context.Context, req PublishRequest) (AutomationResult, error)
	Abort(ctx context.Context) error
	CheckReady(ctx context.Context) (bool, error)
}

// AutomationHandler — сторона агента: публикация, отмена, проверка готовности.
type AutomationHandler interface {
	Publish(ctx context.Context, req PublishRequest) AutomationResult
	Cancel(ctx context.Context) AutomationResult
	Ready(ctx context.Context) bool
}

// PublishConsumer читает задания с шины и отвечает результатами.
type PublishConsumer interface {
	Consume(ctx context.Context, handler AutomationHandler) error
}

// PageController — способность управлять целевой страницей.
// Поверх него написан движок автоматизации; в тестах подменяется фейком.
type PageController interface {
	// Reset очищает реестр найденных элементов: выданные ранее id
	// становятся недействительными.
	Reset(ctx context.Context) error
	// QueryVisible возвращает id первого видимого элемента по селектору.
	QueryVisible(ctx context.Context, selector string) (string, bool, error)
	// Click кликает по ранее найденному элементу.
	Click(ctx context.Context, nodeID string) error
	// ClickEnabled кликает только если элемент видим и не disabled.
	ClickEnabled(ctx context.Context, nodeID string) error
	// SetEditorContent очищает редактор, фокусирует его, вставляет текст
	// и рассылает синтетические события ввода.
	SetEditorContent(ctx context.Context, nodeID, content string) error
	// WriteClipboardImage кладёт байты картинки в системный буфер обмена.
	WriteClipboardImage(ctx context.Context, data []byte, mime string) error
	// DispatchPaste пытается вставить содержимое буфера синтетическим paste.
	DispatchPaste(ctx context.Context, nodeID string) error
	// PasteShortcut имитирует сочетание клавиш вставки.
	PasteShortcut(ctx context.Context) error
	// FocusEnd ставит курсор в конец элемента для ручной вставки.
	FocusEnd(ctx context.Context, nodeID string) error
	// Location возвращает hostname текущей страницы.
	Location(ctx context.Context) (string, error)
}

// Notifier доставляет напоминание пользователю.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
