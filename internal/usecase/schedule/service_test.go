package schedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

func TestNextDaily(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "до наступления часа сегодня",
			now:  time.Date(2026, time.March, 2, 7, 30, 0, 0, loc),
			want: time.Date(2026, time.March, 2, 9, 0, 0, 0, loc),
		},
		{
			name: "после наступления часа переносится на завтра",
			now:  time.Date(2026, time.March, 2, 10, 0, 0, 0, loc),
			want: time.Date(2026, time.March, 3, 9, 0, 0, 0, loc),
		},
		{
			name: "точное совпадение тоже переносится",
			now:  time.Date(2026, time.March, 2, 9, 0, 0, 0, loc),
			want: time.Date(2026, time.March, 3, 9, 0, 0, 0, loc),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDaily(tc.now, 9, 0)
			if !got.Equal(tc.want) {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
}

func TestNextWeekly(t *testing.T) {
	loc := time.UTC
	// 2 марта 2026 — понедельник.
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, loc)
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "в целевой день до часа",
			now:  monday.Add(8 * time.Hour),
			want: monday.Add(9 * time.Hour),
		},
		{
			name: "в целевой день после часа уходит на неделю вперёд",
			now:  monday.Add(10 * time.Hour),
			want: monday.AddDate(0, 0, 7).Add(9 * time.Hour),
		},
		{
			name: "из середины недели до ближайшего понедельника",
			now:  monday.AddDate(0, 0, 3).Add(12 * time.Hour),
			want: monday.AddDate(0, 0, 7).Add(9 * time.Hour),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextWeekly(tc.now, time.Monday, 9, 0)
			if !got.Equal(tc.want) {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
}

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memStore) SetTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type memCache struct {
	seen map[string]struct{}
}

func newMemCache() *memCache { return &memCache{seen: map[string]struct{}{}} }

func (c *memCache) Once(key string, _ time.Duration, fn func() error) error {
	if _, ok := c.seen[key]; ok {
		return nil
	}
	c.seen[key] = struct{}{}
	return fn()
}

func (c *memCache) Set(key string, value []byte, _ time.Duration) error { return nil }

func (c *memCache) Get(key string) ([]byte, error) { return nil, nil }

type stubSettings struct {
	cfg domain.Settings
}

func (s *stubSettings) Get(context.Context) (domain.Settings, error) { return s.cfg, nil }

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func newTestPlanner(store *memStore, cache *memCache, settings *stubSettings, notifier *recordingNotifier, now time.Time) *Planner {
	p := NewPlanner(store, cache, settings, notifier, 9, 0, time.Monday, zerolog.Nop())
	p.now = func() time.Time { return now }
	return p
}

func TestRescheduleDailyPersistsTrigger(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	p := newTestPlanner(store, newMemCache(), &stubSettings{}, &recordingNotifier{}, now)

	if err := p.Reschedule(context.Background(), domain.FrequencyDaily); err != nil {
		t.Fatalf("установка триггера: %v", err)
	}
	if _, ok := store.data[triggerKey]; !ok {
		t.Fatal("триггер должен сохраняться в хранилище")
	}
	if p.current == nil || !p.current.NextFire.Equal(NextDaily(now, 9, 0)) {
		t.Fatalf("неожиданный триггер: %+v", p.current)
	}
}

func TestRescheduleManualClearsTrigger(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	p := newTestPlanner(store, newMemCache(), &stubSettings{}, &recordingNotifier{}, now)

	if err := p.Reschedule(context.Background(), domain.FrequencyWeekly); err != nil {
		t.Fatalf("установка триггера: %v", err)
	}
	if err := p.Reschedule(context.Background(), domain.FrequencyManual); err != nil {
		t.Fatalf("снятие триггера: %v", err)
	}
	if _, ok := store.data[triggerKey]; ok {
		t.Fatal("manual должен удалять сохранённый триггер")
	}
	if p.current != nil {
		t.Fatalf("manual должен снимать активный триггер, остался %+v", p.current)
	}
}

func TestOnFireNotifiesOncePerDay(t *testing.T) {
	notifier := &recordingNotifier{}
	settings := &stubSettings{cfg: domain.Settings{Provider: domain.ProviderTemplate, Frequency: domain.FrequencyDaily}}
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	p := newTestPlanner(newMemStore(), newMemCache(), settings, notifier, now)

	p.onFire(context.Background(), domain.FrequencyDaily)
	p.onFire(context.Background(), domain.FrequencyDaily)

	if len(notifier.messages) != 1 {
		t.Fatalf("ожидали одно напоминание за день, получили %d", len(notifier.messages))
	}
}

func TestOnFireSkipsWithoutProviderKey(t *testing.T) {
	notifier := &recordingNotifier{}
	settings := &stubSettings{cfg: domain.Settings{Provider: domain.ProviderGroq, Frequency: domain.FrequencyDaily}}
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	p := newTestPlanner(newMemStore(), newMemCache(), settings, notifier, now)

	p.onFire(context.Background(), domain.FrequencyDaily)

	if len(notifier.messages) != 0 {
		t.Fatalf("без ключа провайдера напоминаний быть не должно, получили %v", notifier.messages)
	}
}

func persistTrigger(t *testing.T, store *memStore, trigger domain.ScheduledTrigger) {
	t.Helper()
	raw, err := json.Marshal(trigger)
	if err != nil {
		t.Fatalf("сериализация триггера: %v", err)
	}
	store.data[triggerKey] = raw
}

func TestResumeKeepsFutureTrigger(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	saved := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	persistTrigger(t, store, domain.ScheduledTrigger{
		Frequency: domain.FrequencyDaily,
		NextFire:  saved,
		Period:    24 * time.Hour,
	})
	settings := &stubSettings{cfg: domain.Settings{Frequency: domain.FrequencyDaily}}
	p := newTestPlanner(store, newMemCache(), settings, &recordingNotifier{}, now)

	if err := p.Resume(context.Background()); err != nil {
		t.Fatalf("восстановление триггера: %v", err)
	}
	if p.current == nil || !p.current.NextFire.Equal(saved) {
		t.Fatalf("будущий триггер должен сохраниться как есть, получили %+v", p.current)
	}
}

func TestResumeAdvancesMissedTrigger(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	persistTrigger(t, store, domain.ScheduledTrigger{
		Frequency: domain.FrequencyDaily,
		NextFire:  time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
		Period:    24 * time.Hour,
	})
	settings := &stubSettings{cfg: domain.Settings{Frequency: domain.FrequencyDaily}}
	p := newTestPlanner(store, newMemCache(), settings, &recordingNotifier{}, now)

	if err := p.Resume(context.Background()); err != nil {
		t.Fatalf("восстановление триггера: %v", err)
	}
	want := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)
	if p.current == nil || !p.current.NextFire.Equal(want) {
		t.Fatalf("пропущенные срабатывания двигают момент на целое число периодов: ожидали %v, получили %+v", want, p.current)
	}
}

func TestResumeRecomputesOnFrequencyChange(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	persistTrigger(t, store, domain.ScheduledTrigger{
		Frequency: domain.FrequencyDaily,
		NextFire:  time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
		Period:    24 * time.Hour,
	})
	settings := &stubSettings{cfg: domain.Settings{Frequency: domain.FrequencyWeekly}}
	p := newTestPlanner(store, newMemCache(), settings, &recordingNotifier{}, now)

	if err := p.Resume(context.Background()); err != nil {
		t.Fatalf("восстановление триггера: %v", err)
	}
	if p.current == nil || p.current.Frequency != domain.FrequencyWeekly {
		t.Fatalf("изменённая частота должна пересчитать триггер, получили %+v", p.current)
	}
	if !p.current.NextFire.Equal(NextWeekly(now, time.Monday, 9, 0)) {
		t.Fatalf("неожиданный момент пересчитанного триггера: %v", p.current.NextFire)
	}
}

func TestResumeRecomputesCorruptTrigger(t *testing.T) {
	store := newMemStore()
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	persistTrigger(t, store, domain.ScheduledTrigger{
		Frequency: domain.FrequencyDaily,
		NextFire:  time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
		Period:    0,
	})
	settings := &stubSettings{cfg: domain.Settings{Frequency: domain.FrequencyDaily}}
	p := newTestPlanner(store, newMemCache(), settings, &recordingNotifier{}, now)

	done := make(chan error, 1)
	go func() { done <- p.Resume(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("восстановление триггера: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resume не должен зависать на триггере с нулевым периодом")
	}
	if p.current == nil || p.current.Period != 24*time.Hour {
		t.Fatalf("испорченный триггер должен пересчитываться из настроек, получили %+v", p.current)
	}
	if !p.current.NextFire.Equal(NextDaily(now, 9, 0)) {
		t.Fatalf("неожиданный момент пересчитанного триггера: %v", p.current.NextFire)
	}
}
