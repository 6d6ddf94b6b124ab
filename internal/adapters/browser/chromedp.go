package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

// Controller реализует domain.PageController поверх chromedp.
// Найденные элементы складываются в реестр окна и адресуются строковым id,
// чтобы движок автоматизации не знал про DOM-узлы и CDP.
type Controller struct {
	ctx context.Context
	log zerolog.Logger
}

var _ domain.PageController = (*Controller)(nil)

// Config задаёт параметры запуска браузера.
type Config struct {
	ExecPath string
	FeedURL  string
	Headless bool
}

// New запускает браузер, открывает целевую страницу и выдаёт контроллер.
// Возвращаемая функция закрывает браузер.
func New(parent context.Context, cfg Config, logger zerolog.Logger) (*Controller, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cfg.ExecPath),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("headless", cfg.Headless),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	stop := func() {
		cancel()
		allocCancel()
	}

	if err := chromedp.Run(ctx,
		browser.GrantPermissions([]browser.PermissionType{
			browser.PermissionTypeClipboardReadWrite,
			browser.PermissionTypeClipboardSanitizedWrite,
		}),
		chromedp.Navigate(cfg.FeedURL),
		chromedp.WaitReady("body"),
	); err != nil {
		stop()
		return nil, nil, fmt.Errorf("запуск браузера: %w", err)
	}

	logger.Info().Str("url", cfg.FeedURL).Msg("browser: страница открыта")
	return &Controller{ctx: ctx, log: logger}, stop, nil
}

func (c *Controller) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := c.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// Reset выбрасывает реестр элементов целиком. Без этого страница,
// живущая неделями, накапливает ссылки на отсоединённые DOM-узлы.
func (c *Controller) Reset(ctx context.Context) error {
	js := `(() => { window.__botEls = {}; window.__botSeq = 0; return true; })()`
	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("очистка реестра элементов: %w", err)
	}
	return nil
}

// QueryVisible возвращает id первого видимого элемента по селектору.
// Видимость — наличие layout-представления (offsetParent), а не просто
// присутствие в разметке: на странице бывают скрытые дубли.
func (c *Controller) QueryVisible(ctx context.Context, selector string) (string, bool, error) {
	js := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%q);
		for (const el of els) {
			if (el.offsetParent !== null) {
				window.__botEls = window.__botEls || {};
				window.__botSeq = (window.__botSeq || 0) + 1;
				const id = 'el' + window.__botSeq;
				window.__botEls[id] = el;
				return id;
			}
		}
		return '';
	})()`, selector)

	var id string
	if err := c.run(ctx, chromedp.Evaluate(js, &id)); err != nil {
		return "", false, fmt.Errorf("поиск %q: %w", selector, err)
	}
	return id, id != "", nil
}

// Click скроллит к элементу и кликает.
func (c *Controller) Click(ctx context.Context, nodeID string) error {
	js := fmt.Sprintf(`(() => {
		const el = window.__botEls[%q];
		if (!el) return false;
		el.scrollIntoView({behavior: 'smooth', block: 'center'});
		el.click();
		return true;
	})()`, nodeID)

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("клик: %w", err)
	}
	if !ok {
		return fmt.Errorf("клик: элемент %s потерян", nodeID)
	}
	return nil
}

// ClickEnabled кликает только по видимому и не заблокированному элементу.
func (c *Controller) ClickEnabled(ctx context.Context, nodeID string) error {
	js := fmt.Sprintf(`(() => {
		const el = window.__botEls[%q];
		if (!el || el.disabled || el.offsetParent === null) return false;
		el.click();
		return true;
	})()`, nodeID)

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("клик: %w", err)
	}
	if !ok {
		return domain.ErrElementNotFound
	}
	return nil
}

// SetEditorContent очищает редактор, фокусирует, вставляет текст и рассылает
// синтетические события. Прямое присваивание innerHTML страница не замечает:
// её реактивный фреймворк следит только за событиями ввода.
func (c *Controller) SetEditorContent(ctx context.Context, nodeID, content string) error {
	encoded, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("кодирование текста: %w", err)
	}
	js := fmt.Sprintf(`(() => {
		const el = window.__botEls[%q];
		if (!el) return false;
		const content = %s;
		el.innerHTML = '';
		el.focus();
		el.innerHTML = content.replace(/\n/g, '<br>');
		for (const type of ['input', 'change', 'keyup', 'paste']) {
			el.dispatchEvent(new Event(type, {bubbles: true, cancelable: true}));
		}
		el.dispatchEvent(new InputEvent('input', {
			bubbles: true,
			cancelable: true,
			inputType: 'insertText',
			data: content,
		}));
		return true;
	})()`, nodeID, string(encoded))

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("вставка текста: %w", err)
	}
	if !ok {
		return fmt.Errorf("вставка текста: элемент %s потерян", nodeID)
	}
	return nil
}

// WriteClipboardImage кладёт картинку в системный буфер обмена через
// ClipboardItem внутри страницы.
func (c *Controller) WriteClipboardImage(ctx context.Context, data []byte, mime string) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	js := fmt.Sprintf(`(async () => {
		const resp = await fetch('data:%s;base64,%s');
		const blob = await resp.blob();
		await navigator.clipboard.write([new ClipboardItem({[%q]: blob})]);
		return true;
	})()`, mime, encoded, mime)

	var ok bool
	err := c.run(ctx, chromedp.Evaluate(js, &ok, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return fmt.Errorf("запись в буфер обмена: %w", err)
	}
	return nil
}

// DispatchPaste шлёт редактору синтетическое событие paste.
func (c *Controller) DispatchPaste(ctx context.Context, nodeID string) error {
	js := fmt.Sprintf(`(() => {
		const el = window.__botEls[%q];
		if (!el) return false;
		el.focus();
		el.dispatchEvent(new ClipboardEvent('paste', {bubbles: true, cancelable: true}));
		return true;
	})()`, nodeID)

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("синтетический paste: %w", err)
	}
	if !ok {
		return fmt.Errorf("синтетический paste: элемент %s потерян", nodeID)
	}
	return nil
}

// PasteShortcut имитирует Ctrl+V на уровне устройства ввода.
func (c *Controller) PasteShortcut(ctx context.Context) error {
	if err := c.run(ctx, chromedp.KeyEvent("v", chromedp.KeyModifiers(input.ModifierCtrl))); err != nil {
		return fmt.Errorf("сочетание вставки: %w", err)
	}
	return nil
}

// FocusEnd ставит курсор в конец редактора для ручной вставки.
func (c *Controller) FocusEnd(ctx context.Context, nodeID string) error {
	js := fmt.Sprintf(`(() => {
		const el = window.__botEls[%q];
		if (!el) return false;
		el.focus();
		const range = document.createRange();
		range.selectNodeContents(el);
		range.collapse(false);
		const sel = window.getSelection();
		sel.removeAllRanges();
		sel.addRange(range);
		return true;
	})()`, nodeID)

	var ok bool
	if err := c.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return fmt.Errorf("установка курсора: %w", err)
	}
	if !ok {
		return fmt.Errorf("установка курсора: элемент %s потерян", nodeID)
	}
	return nil
}

// Location возвращает hostname открытой страницы.
func (c *Controller) Location(ctx context.Context) (string, error) {
	var host string
	if err := c.run(ctx, chromedp.Evaluate(`window.location.hostname`, &host)); err != nil {
		return "", fmt.Errorf("чтение адреса страницы: %w", err)
	}
	return host, nil
}
