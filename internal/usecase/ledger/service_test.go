package ledger

import (
	"context"
	"testing"
	"time"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

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

func TestIsUsedMatchesSubstringBothWays(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 30)

	if err := svc.Record(ctx, "Kubernetes Security"); err != nil {
		t.Fatalf("запись темы: %v", err)
	}

	cases := []struct {
		candidate string
		want      bool
	}{
		{"kubernetes security", true},
		{"Kubernetes Security Hardening Guide", true},
		{"Security", true},
		{"Rust Async Runtime", false},
	}
	for _, tc := range cases {
		used, err := svc.IsUsed(ctx, tc.candidate)
		if err != nil {
			t.Fatalf("проверка %q: %v", tc.candidate, err)
		}
		if used != tc.want {
			t.Fatalf("кандидат %q: ожидали used=%v, получили %v", tc.candidate, tc.want, used)
		}
	}
}

func TestListActiveDropsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, 30)

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if err := svc.Record(ctx, "Старая тема"); err != nil {
		t.Fatalf("запись темы: %v", err)
	}

	svc.now = func() time.Time { return base.Add(10 * 24 * time.Hour) }
	if err := svc.Record(ctx, "Свежая тема"); err != nil {
		t.Fatalf("запись темы: %v", err)
	}

	// 31 день после первой записи: она за окном, вторая ещё жива.
	svc.now = func() time.Time { return base.Add(31 * 24 * time.Hour) }
	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("чтение истории: %v", err)
	}
	if len(active) != 1 || active[0].Topic != "Свежая тема" {
		t.Fatalf("ожидали одну свежую запись, получили %+v", active)
	}

	used, err := svc.IsUsed(ctx, "Старая тема")
	if err != nil {
		t.Fatalf("проверка темы: %v", err)
	}
	if used {
		t.Fatal("истёкшая тема не должна считаться использованной")
	}
}

func TestClearRemovesHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), 30)

	if err := svc.Record(ctx, "Тема"); err != nil {
		t.Fatalf("запись темы: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("очистка истории: %v", err)
	}
	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("чтение истории: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("после очистки история должна быть пустой, получили %+v", active)
	}
}
