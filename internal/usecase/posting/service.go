package posting

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/usecase/topics"
)

const draftKey = "current_draft"

type topicCollector interface {
	Collect(ctx context.Context, enabled []string) []domain.TopicCandidate
}

type composer interface {
	Synthesize(ctx context.Context, topic, provider string, wantsImage bool) (domain.GeneratedPost, error)
}

type settingsProvider interface {
	Get(ctx context.Context) (domain.Settings, error)
}

// Service — оркестратор полного цикла: тема, текст, черновик, публикация.
// Черновик живёт в session-хранилище с TTL и переживает перезапуск API,
// но не задерживается дольше суток.
type Service struct {
	topics   topicCollector
	compose  composer
	settings settingsProvider
	ledger   domain.Ledger
	session  domain.KVStore
	bus      domain.PublishBus
	draftTTL time.Duration
	log      zerolog.Logger
	pick     func(n int) int
}

// NewService создаёт оркестратор публикаций.
func NewService(
	collector topicCollector,
	composer composer,
	settings settingsProvider,
	ledger domain.Ledger,
	session domain.KVStore,
	bus domain.PublishBus,
	draftTTL time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		topics:   collector,
		compose:  composer,
		settings: settings,
		ledger:   ledger,
		session:  session,
		bus:      bus,
		draftTTL: draftTTL,
		log:      logger,
		pick:     rand.Intn,
	}
}

// Generate собирает кандидатов, отбрасывает использованные темы, выбирает
// случайную и синтезирует черновик. Черновик сохраняется до явного решения
// пользователя: опубликовать, скопировать или выбросить.
func (s *Service) Generate(ctx context.Context) (domain.GeneratedPost, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("чтение настроек: %w", err)
	}

	candidates := s.topics.Collect(ctx, cfg.Sources)
	fresh := make([]domain.TopicCandidate, 0, len(candidates))
	for _, c := range candidates {
		used, err := s.ledger.IsUsed(ctx, c.Text)
		if err != nil {
			return domain.GeneratedPost{}, fmt.Errorf("проверка истории тем: %w", err)
		}
		if !used {
			fresh = append(fresh, c)
		}
	}
	// Все кандидаты выгорели: берём запасной список и фильтруем его так же.
	if len(fresh) == 0 {
		for _, c := range topics.Fallback() {
			used, err := s.ledger.IsUsed(ctx, c.Text)
			if err != nil {
				return domain.GeneratedPost{}, fmt.Errorf("проверка истории тем: %w", err)
			}
			if !used {
				fresh = append(fresh, c)
			}
		}
	}
	if len(fresh) == 0 {
		return domain.GeneratedPost{}, domain.ErrNoTopics
	}

	topic := fresh[s.pick(len(fresh))].Text
	s.log.Info().Str("topic", topic).Int("candidates", len(fresh)).Msg("posting: тема выбрана")

	post, err := s.compose.Synthesize(ctx, topic, cfg.Provider, cfg.EnableImages)
	if err != nil {
		return domain.GeneratedPost{}, err
	}
	if err := s.saveDraft(ctx, post); err != nil {
		return domain.GeneratedPost{}, err
	}
	return post, nil
}

// Draft возвращает текущий черновик, если он ещё жив.
func (s *Service) Draft(ctx context.Context) (domain.GeneratedPost, error) {
	raw, ok, err := s.session.Get(ctx, draftKey)
	if err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("чтение черновика: %w", err)
	}
	if !ok {
		return domain.GeneratedPost{}, domain.ErrNoDraft
	}
	var post domain.GeneratedPost
	if err := json.Unmarshal(raw, &post); err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("разбор черновика: %w", err)
	}
	return post, nil
}

// Approve отправляет черновик агенту автоматизации. При успехе тема
// фиксируется в истории и черновик удаляется; при провале черновик
// остаётся, чтобы пользователь мог опубликовать вручную.
func (s *Service) Approve(ctx context.Context) (domain.AutomationResult, error) {
	post, err := s.Draft(ctx)
	if err != nil {
		return domain.AutomationResult{}, err
	}

	req := domain.PublishRequest{
		ID:       uuid.NewString(),
		Content:  post.Content,
		ImageURL: post.ImageURL,
	}
	res, err := s.bus.Publish(ctx, req)
	if err != nil {
		return domain.AutomationResult{}, fmt.Errorf("доставка задания агенту: %w", err)
	}
	if !res.Success {
		s.log.Warn().Str("request", req.ID).Str("reason", res.Message).Msg("posting: публикация не удалась, черновик сохранён")
		return res, nil
	}

	if err := s.ledger.Record(ctx, post.Topic); err != nil {
		s.log.Error().Err(err).Str("topic", post.Topic).Msg("posting: тема опубликована, но не записана в историю")
	}
	if err := s.session.Remove(ctx, draftKey); err != nil {
		s.log.Warn().Err(err).Msg("posting: черновик не удалён")
	}
	return res, nil
}

// Copy отдаёт текст черновика для ручной вставки. Тема при этом считается
// использованной: пользователь забрал контент.
func (s *Service) Copy(ctx context.Context) (domain.GeneratedPost, error) {
	post, err := s.Draft(ctx)
	if err != nil {
		return domain.GeneratedPost{}, err
	}
	if err := s.ledger.Record(ctx, post.Topic); err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("запись темы в историю: %w", err)
	}
	if err := s.session.Remove(ctx, draftKey); err != nil {
		s.log.Warn().Err(err).Msg("posting: черновик не удалён")
	}
	return post, nil
}

// Discard выбрасывает черновик без следа в истории тем. Агенту
// отправляется отмена, чтобы закрыть полуоткрытую форму после
// неудачной публикации; её недоставка черновику не мешает.
func (s *Service) Discard(ctx context.Context) error {
	if err := s.bus.Abort(ctx); err != nil {
		s.log.Debug().Err(err).Msg("posting: отмена не доставлена агенту")
	}
	if err := s.session.Remove(ctx, draftKey); err != nil {
		return fmt.Errorf("удаление черновика: %w", err)
	}
	return nil
}

// AgentReady проверяет, доступен ли агент автоматизации и открыта ли
// у него целевая страница.
func (s *Service) AgentReady(ctx context.Context) bool {
	ready, err := s.bus.CheckReady(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("posting: агент недоступен")
		return false
	}
	return ready
}

// History возвращает активные записи истории тем.
func (s *Service) History(ctx context.Context) ([]domain.UsedTopicRecord, error) {
	return s.ledger.ListActive(ctx)
}

// ClearHistory стирает историю использованных тем.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.ledger.Clear(ctx)
}

func (s *Service) saveDraft(ctx context.Context, post domain.GeneratedPost) error {
	raw, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("сериализация черновика: %w", err)
	}
	if err := s.session.SetTTL(ctx, draftKey, raw, s.draftTTL); err != nil {
		return fmt.Errorf("сохранение черновика: %w", err)
	}
	return nil
}
