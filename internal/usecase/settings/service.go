package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"li-post-bot/internal/domain"
)

const storageKey = "settings"

// Defaults — настройки до первичной конфигурации.
func Defaults() domain.Settings {
	return domain.Settings{
		Provider:  domain.ProviderGroq,
		Frequency: domain.FrequencyManual,
		Sources:   []string{"hackernews", "reddit"},
	}
}

// Service хранит настройки в долговременной области KV.
// Значения приходят уже провалидированными с внешней границы.
type Service struct {
	store domain.KVStore
}

// NewService создаёт сервис настроек.
func NewService(store domain.KVStore) *Service {
	return &Service{store: store}
}

// Get возвращает сохранённые настройки либо значения по умолчанию.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	raw, ok, err := s.store.Get(ctx, storageKey)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("чтение настроек: %w", err)
	}
	if !ok {
		return Defaults(), nil
	}
	var cfg domain.Settings
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("декодирование настроек: %w", err)
	}
	return cfg, nil
}

// Save сохраняет настройки.
func (s *Service) Save(ctx context.Context, cfg domain.Settings) error {
	if !cfg.Frequency.Valid() {
		return fmt.Errorf("неизвестная частота: %q", cfg.Frequency)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("кодирование настроек: %w", err)
	}
	if err := s.store.Set(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}
