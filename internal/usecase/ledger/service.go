package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"li-post-bot/internal/domain"
)

const storageKey = "used_topics"

// Service ведёт историю использованных тем.
// Записи старше окна хранения отбрасываются лениво при каждом чтении
// и больше не возвращаются.
type Service struct {
	store     domain.KVStore
	retention time.Duration
	now       func() time.Time
}

var _ domain.Ledger = (*Service)(nil)

// NewService создаёт леджер с окном хранения в днях.
func NewService(store domain.KVStore, retentionDays int) *Service {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Service{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Record добавляет тему с текущим временем и сохраняет уже очищенный набор.
func (s *Service) Record(ctx context.Context, topic string) error {
	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, domain.UsedTopicRecord{Topic: topic, UsedAt: s.now().UTC()})
	return s.save(ctx, s.prune(records))
}

// ListActive возвращает записи внутри окна хранения, попутно вычищая старые.
func (s *Service) ListActive(ctx context.Context) ([]domain.UsedTopicRecord, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	active := s.prune(records)
	if len(active) != len(records) {
		if err := s.save(ctx, active); err != nil {
			return nil, err
		}
	}
	return active, nil
}

// IsUsed проверяет кандидата против активной истории. Совпадение —
// двустороннее вхождение подстроки без учёта регистра: короткая
// использованная тема гасит и более длинных кандидатов. Политика
// сознательно агрессивная: лучше пропустить тему, чем повториться.
func (s *Service) IsUsed(ctx context.Context, candidate string) (bool, error) {
	active, err := s.ListActive(ctx)
	if err != nil {
		return false, err
	}
	lowered := strings.ToLower(candidate)
	for _, rec := range active {
		used := strings.ToLower(rec.Topic)
		if strings.Contains(used, lowered) || strings.Contains(lowered, used) {
			return true, nil
		}
	}
	return false, nil
}

// Clear полностью очищает историю.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Remove(ctx, storageKey)
}

func (s *Service) prune(records []domain.UsedTopicRecord) []domain.UsedTopicRecord {
	cutoff := s.now().UTC().Add(-s.retention)
	active := make([]domain.UsedTopicRecord, 0, len(records))
	for _, rec := range records {
		if rec.UsedAt.After(cutoff) {
			active = append(active, rec)
		}
	}
	return active
}

func (s *Service) load(ctx context.Context) ([]domain.UsedTopicRecord, error) {
	raw, ok, err := s.store.Get(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("чтение истории тем: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var records []domain.UsedTopicRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("декодирование истории тем: %w", err)
	}
	return records, nil
}

func (s *Service) save(ctx context.Context, records []domain.UsedTopicRecord) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("кодирование истории тем: %w", err)
	}
	if err := s.store.Set(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("сохранение истории тем: %w", err)
	}
	return nil
}
