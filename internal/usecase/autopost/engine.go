package autopost

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

// Состояния одного прогона публикации. Шаги выполняются строго по порядку,
// параллельных прогонов не бывает (prefetch 1 на шине).
type state string

const (
	stateIdle            state = "idle"
	stateLocatingTrigger state = "locating_trigger"
	stateTriggerClicked  state = "trigger_clicked"
	stateLocatingEditor  state = "locating_editor"
	stateContentInjected state = "content_injected"
	stateImageTransfer   state = "image_transfer"
	statePublishing      state = "publishing"
	statePublished       state = "published"
	stateFailed          state = "failed"
)

const (
	resolveAttempts = 10
	resolveDelay    = 500 * time.Millisecond

	triggerSettle = time.Second
	contentSettle = 2 * time.Second
	publishSettle = 3 * time.Second

	targetHost = "linkedin.com"
)

type imageFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, mime string, err error)
}

// Engine управляет страницей публикации через domain.PageController.
// Любой провал превращается в структурированный AutomationResult:
// голая ошибка через шину не уходит никогда.
type Engine struct {
	page      domain.PageController
	selectors domain.SelectorStrategies
	images    imageFetcher
	log       zerolog.Logger

	resolveDelay  time.Duration
	triggerSettle time.Duration
	contentSettle time.Duration
	publishSettle time.Duration
}

var _ domain.AutomationHandler = (*Engine)(nil)

// NewEngine создаёт движок автоматизации.
func NewEngine(page domain.PageController, selectors domain.SelectorStrategies, images imageFetcher, logger zerolog.Logger) *Engine {
	return &Engine{
		page:      page,
		selectors: selectors,
		images:    images,
		log:       logger,

		resolveDelay:  resolveDelay,
		triggerSettle: triggerSettle,
		contentSettle: contentSettle,
		publishSettle: publishSettle,
	}
}

// Ready проверяет, что открыта целевая страница.
func (e *Engine) Ready(ctx context.Context) bool {
	host, err := e.page.Location(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("autopost: адрес страницы недоступен")
		return false
	}
	return strings.Contains(host, targetHost)
}

// Publish проводит пост через машину состояний и возвращает итог.
func (e *Engine) Publish(ctx context.Context, req domain.PublishRequest) domain.AutomationResult {
	res := e.publish(ctx, req)
	metrics.ObservePublish(res.Success)
	return res
}

func (e *Engine) publish(ctx context.Context, req domain.PublishRequest) domain.AutomationResult {
	if strings.TrimSpace(req.Content) == "" {
		return e.fail(req.ID, stateIdle, "пустой текст поста")
	}
	if !e.Ready(ctx) {
		return e.fail(req.ID, stateIdle, "откройте ленту LinkedIn (linkedin.com/feed) и войдите в аккаунт")
	}
	// Id прошлых запросов дальше не нужны: реестр элементов начинается заново.
	if err := e.page.Reset(ctx); err != nil {
		e.log.Debug().Err(err).Msg("autopost: реестр элементов не очищен")
	}

	e.transition(req.ID, stateLocatingTrigger)
	trigger, err := e.resolve(ctx, domain.TargetShareTrigger)
	if err != nil {
		return e.fail(req.ID, stateLocatingTrigger,
			"кнопка \"Start a post\" не найдена: убедитесь, что открыта лента LinkedIn")
	}
	if err := e.page.Click(ctx, trigger); err != nil {
		return e.fail(req.ID, stateLocatingTrigger, fmt.Sprintf("не удалось открыть форму поста: %v", err))
	}
	e.transition(req.ID, stateTriggerClicked)
	e.settle(ctx, e.triggerSettle)

	e.transition(req.ID, stateLocatingEditor)
	editor, err := e.resolve(ctx, domain.TargetEditor)
	if err != nil {
		return e.fail(req.ID, stateLocatingEditor,
			"редактор поста не найден: диалог публикации не открылся")
	}

	if err := e.page.SetEditorContent(ctx, editor, req.Content); err != nil {
		e.cancelDialog(ctx)
		return e.fail(req.ID, stateLocatingEditor, fmt.Sprintf("не удалось вставить текст: %v", err))
	}
	e.transition(req.ID, stateContentInjected)
	e.settle(ctx, e.contentSettle)

	var imageHint string
	if req.ImageURL != "" {
		e.transition(req.ID, stateImageTransfer)
		imageHint = e.transferImage(ctx, editor, req.ImageURL)
	}

	e.transition(req.ID, statePublishing)
	publish, err := e.resolve(ctx, domain.TargetPublish)
	if err == nil {
		err = e.page.ClickEnabled(ctx, publish)
	}
	if err != nil {
		e.cancelDialog(ctx)
		return e.fail(req.ID, statePublishing,
			"кнопка публикации не найдена или заблокирована: проверьте содержимое и опубликуйте вручную")
	}
	// Публикация необратима: после клика повторов не бывает.
	e.settle(ctx, e.publishSettle)

	e.transition(req.ID, statePublished)
	message := "пост опубликован"
	if imageHint != "" {
		message += "; " + imageHint
	}
	return domain.AutomationResult{ID: req.ID, Success: true, Message: message}
}

// Cancel закрывает форму публикации без отправки. Отказ пользователя —
// нормальный исход, не ошибка.
func (e *Engine) Cancel(ctx context.Context) domain.AutomationResult {
	e.cancelDialog(ctx)
	return domain.AutomationResult{Success: true, Message: domain.ErrUserCancelled.Error()}
}

// resolve перебирает стратегии селекторов цели в порядке убывания
// надёжности, принимая первый видимый элемент. Ограниченный цикл попыток
// с фиксированной задержкой; всегда завершается, никогда не виснет.
func (e *Engine) resolve(ctx context.Context, target domain.SelectorTarget) (string, error) {
	strategies := e.selectors[target]
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.resolveDelay):
			}
		}
		for _, selector := range strategies {
			id, found, err := e.page.QueryVisible(ctx, selector)
			if err != nil {
				e.log.Debug().Str("selector", selector).Err(err).Msg("autopost: селектор не сработал")
				continue
			}
			if found {
				e.log.Debug().Str("target", string(target)).Str("selector", selector).Msg("autopost: цель найдена")
				metrics.ObserveSelectorResolution(string(target), true)
				return id, nil
			}
		}
	}
	metrics.ObserveSelectorResolution(string(target), false)
	return "", fmt.Errorf("%w: %s", domain.ErrElementNotFound, target)
}

// transferImage переносит картинку через буфер обмена. Любой провал здесь
// нефатален: текст важнее, поток продолжается с подсказкой о ручной вставке.
func (e *Engine) transferImage(ctx context.Context, editor, imageURL string) string {
	data, mime, err := e.images.Fetch(ctx, imageURL)
	if err != nil {
		e.log.Warn().Err(err).Str("url", imageURL).Msg("autopost: картинка не скачалась")
		metrics.ClipboardFallbacks.Inc()
		return "картинка недоступна, пост ушёл без неё"
	}
	if err := e.page.WriteClipboardImage(ctx, data, mime); err != nil {
		e.log.Warn().Err(err).Msg("autopost: буфер обмена недоступен")
		metrics.ClipboardFallbacks.Inc()
		e.focusForManualPaste(ctx, editor)
		return "картинка не попала в буфер: вставьте её вручную"
	}

	// Запасные стратегии вставки в фиксированном порядке,
	// каждая независима от предыдущей.
	attempts := []domain.Attempt[struct{}]{
		{Name: "synthetic_paste", Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.page.DispatchPaste(ctx, editor)
		}},
		{Name: "keyboard_shortcut", Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.page.PasteShortcut(ctx)
		}},
	}
	_, strategy, err := domain.FirstSuccess(ctx, attempts, func(name string, err error) {
		e.log.Debug().Str("strategy", name).Err(err).Msg("autopost: стратегия вставки не сработала")
	})
	if err != nil {
		metrics.ClipboardFallbacks.Inc()
		e.focusForManualPaste(ctx, editor)
		return "картинка в буфере обмена: вставьте её вручную (Ctrl+V)"
	}
	e.log.Debug().Str("strategy", strategy).Msg("autopost: картинка вставлена")
	return ""
}

func (e *Engine) focusForManualPaste(ctx context.Context, editor string) {
	if err := e.page.FocusEnd(ctx, editor); err != nil {
		e.log.Debug().Err(err).Msg("autopost: курсор не установлен")
	}
}

// cancelDialog закрывает форму после провала, чтобы не оставлять страницу
// в полунабранном состоянии. Строго best-effort.
func (e *Engine) cancelDialog(ctx context.Context) {
	for _, selector := range e.selectors[domain.TargetCancel] {
		id, found, err := e.page.QueryVisible(ctx, selector)
		if err != nil || !found {
			continue
		}
		if err := e.page.Click(ctx, id); err == nil {
			return
		}
	}
}

func (e *Engine) transition(id string, to state) {
	e.log.Debug().Str("request", id).Str("state", string(to)).Msg("autopost: переход")
}

func (e *Engine) fail(id string, at state, message string) domain.AutomationResult {
	e.log.Warn().Str("request", id).Str("state", string(at)).Str("reason", message).Msg("autopost: провал")
	return domain.AutomationResult{ID: id, Success: false, Message: message}
}

func (e *Engine) settle(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
