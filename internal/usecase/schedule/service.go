package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

const triggerKey = "schedule_trigger"

const configPollInterval = time.Minute

// NextDaily возвращает ближайшее будущее наступление часа и минуты.
// Если сегодняшний момент уже не строго в будущем, берётся завтрашний.
func NextDaily(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// NextWeekly возвращает ближайшее будущее наступление дня недели с часом
// и минутой: (целевой день - сегодняшний + 7) mod 7 дней вперёд; ноль дней
// при уже прошедшем моменте означает следующую неделю.
func NextWeekly(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	if days == 0 && !candidate.After(now) {
		days = 7
	}
	return candidate.AddDate(0, 0, days)
}

type settingsReader interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// Planner устанавливает и поддерживает повторяющийся триггер напоминаний.
// Активный триггер всегда один: установка нового сначала снимает прежний.
// Состояние триггера сохраняется, перезапуск процесса продолжает расписание.
type Planner struct {
	store    domain.KVStore
	cache    domain.Cache
	settings settingsReader
	notifier domain.Notifier
	log      zerolog.Logger

	hour    int
	minute  int
	weekday time.Weekday
	now     func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	current *domain.ScheduledTrigger
	fires   chan domain.Frequency
}

// NewPlanner создаёт планировщик.
func NewPlanner(store domain.KVStore, cache domain.Cache, settings settingsReader, notifier domain.Notifier, hour, minute int, weekday time.Weekday, logger zerolog.Logger) *Planner {
	return &Planner{
		store:    store,
		cache:    cache,
		settings: settings,
		notifier: notifier,
		log:      logger,
		hour:     hour,
		minute:   minute,
		weekday:  weekday,
		now:      time.Now,
		fires:    make(chan domain.Frequency, 1),
	}
}

// Reschedule снимает прежний триггер и ставит новый по частоте.
// Для manual триггер не устанавливается. Идемпотентна.
func (p *Planner) Reschedule(ctx context.Context, freq domain.Frequency) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLocked()
	if err := p.store.Remove(ctx, triggerKey); err != nil {
		return fmt.Errorf("снятие триггера: %w", err)
	}
	if freq == domain.FrequencyManual {
		p.log.Info().Msg("schedule: напоминания выключены")
		return nil
	}

	trigger, err := p.computeTrigger(freq, p.now())
	if err != nil {
		return err
	}
	if err := p.persistLocked(ctx, trigger); err != nil {
		return err
	}
	p.armLocked(trigger)
	p.log.Info().
		Str("frequency", string(freq)).
		Time("next_fire", trigger.NextFire).
		Msg("schedule: триггер установлен")
	return nil
}

// Resume восстанавливает сохранённый триггер после перезапуска процесса.
// Если сохранённого нет или частота в настройках изменилась, триггер
// пересчитывается из настроек.
func (p *Planner) Resume(ctx context.Context) error {
	cfg, err := p.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("чтение настроек расписания: %w", err)
	}

	raw, ok, err := p.store.Get(ctx, triggerKey)
	if err != nil {
		return fmt.Errorf("чтение триггера: %w", err)
	}
	if !ok {
		return p.Reschedule(ctx, cfg.Frequency)
	}

	var trigger domain.ScheduledTrigger
	if err := json.Unmarshal(raw, &trigger); err != nil {
		return p.Reschedule(ctx, cfg.Frequency)
	}
	if trigger.Frequency != cfg.Frequency {
		return p.Reschedule(ctx, cfg.Frequency)
	}
	// Запись пишется несколькими процессами по принципу last-writer-wins,
	// поэтому неположительный период — испорченная запись, а не повод
	// зациклиться: пересчитываем из настроек.
	if trigger.Period <= 0 {
		p.log.Warn().Dur("period", trigger.Period).Msg("schedule: испорченный триггер, пересчёт")
		return p.Reschedule(ctx, cfg.Frequency)
	}

	// Пропущенные за время простоя срабатывания не навёрстываются:
	// просто двигаем момент вперёд на целое число периодов.
	now := p.now()
	for !trigger.NextFire.After(now) {
		trigger.NextFire = trigger.NextFire.Add(trigger.Period)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
	if err := p.persistLocked(ctx, &trigger); err != nil {
		return err
	}
	p.armLocked(&trigger)
	p.log.Info().
		Str("frequency", string(trigger.Frequency)).
		Time("next_fire", trigger.NextFire).
		Msg("schedule: триггер восстановлен")
	return nil
}

// Run обслуживает срабатывания и следит за внешними правками частоты.
// Блокируется до отмены контекста.
func (p *Planner) Run(ctx context.Context) error {
	poll := time.NewTicker(configPollInterval)
	defer poll.Stop()

	lastFreq := domain.FrequencyManual
	if cfg, err := p.settings.Get(ctx); err == nil {
		lastFreq = cfg.Frequency
	}

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.clearLocked()
			p.mu.Unlock()
			return ctx.Err()
		case freq := <-p.fires:
			p.onFire(ctx, freq)
			if err := p.advance(ctx); err != nil {
				p.log.Error().Err(err).Msg("schedule: не удалось перевзвести триггер")
			}
		case <-poll.C:
			cfg, err := p.settings.Get(ctx)
			if err != nil {
				p.log.Error().Err(err).Msg("schedule: настройки недоступны")
				continue
			}
			if cfg.Frequency != lastFreq {
				p.log.Info().
					Str("from", string(lastFreq)).
					Str("to", string(cfg.Frequency)).
					Msg("schedule: частота изменена извне")
				if err := p.Reschedule(ctx, cfg.Frequency); err != nil {
					p.log.Error().Err(err).Msg("schedule: пересчёт не удался")
					continue
				}
				lastFreq = cfg.Frequency
			}
		}
	}
}

func (p *Planner) computeTrigger(freq domain.Frequency, now time.Time) (*domain.ScheduledTrigger, error) {
	switch freq {
	case domain.FrequencyDaily:
		return &domain.ScheduledTrigger{
			Frequency: freq,
			NextFire:  NextDaily(now, p.hour, p.minute),
			Period:    24 * time.Hour,
		}, nil
	case domain.FrequencyWeekly:
		return &domain.ScheduledTrigger{
			Frequency: freq,
			NextFire:  NextWeekly(now, p.weekday, p.hour, p.minute),
			Period:    7 * 24 * time.Hour,
		}, nil
	}
	return nil, fmt.Errorf("неизвестная частота: %q", freq)
}

func (p *Planner) advance(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	next := *p.current
	now := p.now()
	if next.Period <= 0 {
		fresh, err := p.computeTrigger(next.Frequency, now)
		if err != nil {
			return err
		}
		next = *fresh
	}
	for !next.NextFire.After(now) {
		next.NextFire = next.NextFire.Add(next.Period)
	}
	if err := p.persistLocked(ctx, &next); err != nil {
		return err
	}
	p.armLocked(&next)
	return nil
}

func (p *Planner) onFire(ctx context.Context, freq domain.Frequency) {
	// Две копии планировщика после рестарта не должны слать два напоминания.
	key := fmt.Sprintf("schedule_fire:%s:%s", freq, p.now().UTC().Format("2006-01-02"))
	err := p.cache.Once(key, 12*time.Hour, func() error {
		cfg, err := p.settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("чтение настроек: %w", err)
		}
		if cfg.Provider != domain.ProviderTemplate && cfg.ProviderKey() == "" {
			// Без ключа напоминание бессмысленно: молча пропускаем.
			p.log.Info().Str("provider", cfg.Provider).Msg("schedule: нет ключа провайдера, напоминание пропущено")
			metrics.ScheduleFires.WithLabelValues(string(freq), "skipped").Inc()
			return nil
		}
		if err := p.notifier.Notify(ctx, "Пора публиковать пост! Откройте панель и сгенерируйте контент."); err != nil {
			metrics.ScheduleFires.WithLabelValues(string(freq), "error").Inc()
			return err
		}
		metrics.ScheduleFires.WithLabelValues(string(freq), "notified").Inc()
		return nil
	})
	if err != nil {
		p.log.Error().Err(err).Msg("schedule: обработка срабатывания не удалась")
	}
}

func (p *Planner) persistLocked(ctx context.Context, trigger *domain.ScheduledTrigger) error {
	raw, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("кодирование триггера: %w", err)
	}
	if err := p.store.Set(ctx, triggerKey, raw); err != nil {
		return fmt.Errorf("сохранение триггера: %w", err)
	}
	p.current = trigger
	return nil
}

func (p *Planner) armLocked(trigger *domain.ScheduledTrigger) {
	freq := trigger.Frequency
	p.timer = time.AfterFunc(time.Until(trigger.NextFire), func() {
		select {
		case p.fires <- freq:
		default:
		}
	})
}

func (p *Planner) clearLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = nil
}
