package domain

// SelectorTarget — логическая цель на странице публикации.
type SelectorTarget string

const (
	// TargetShareTrigger — кнопка открытия формы нового поста.
	TargetShareTrigger SelectorTarget = "share_trigger"
	// TargetEditor — текстовый редактор поста.
	TargetEditor SelectorTarget = "editor"
	// TargetPublish — кнопка отправки поста.
	TargetPublish SelectorTarget = "publish"
	// TargetCancel — кнопка закрытия формы без публикации.
	TargetCancel SelectorTarget = "cancel"
)

// SelectorStrategies хранит упорядоченные списки селекторов по целям.
// Порядок — по убыванию специфичности: первые правила самые надёжные.
type SelectorStrategies map[SelectorTarget][]string

// LinkedInSelectors — актуальный набор селекторов для ленты LinkedIn.
// Страница враждебна к автоматизации и периодически меняет разметку,
// поэтому на каждую цель заведено несколько запасных правил.
func LinkedInSelectors() SelectorStrategies {
	return SelectorStrategies{
		TargetShareTrigger: {
			`[data-test-id="share-box-trigger"]`,
			`[data-control-name="share_toggle"]`,
			`.share-box-feed-entry__trigger`,
			`[aria-label*="Start a post"]`,
			`.share-box-feed-entry__trigger button`,
			`button[aria-label="Start a post"]`,
			`.artdeco-button[aria-label*="Start a post"]`,
			`.share-creation-state__text-editor-container button`,
		},
		TargetEditor: {
			`[data-test-id="share-box-text-editor"]`,
			`.ql-editor[contenteditable="true"]`,
			`[contenteditable="true"][role="textbox"]`,
			`.mentions-texteditor__content`,
			`.share-creation-state__text-editor`,
			`[data-placeholder*="What do you want to talk about"]`,
		},
		TargetPublish: {
			`[data-test-id="share-actions-post-button"]`,
			`[data-control-name="share.post"]`,
			`button[type="submit"][data-test-id*="post"]`,
			`.share-actions__primary-action`,
			`button[aria-label*="Post"]`,
			`.artdeco-button--primary[type="submit"]`,
		},
		TargetCancel: {
			`[data-test-id="share-actions-cancel-button"]`,
			`[aria-label="Dismiss"]`,
			`.artdeco-modal__dismiss`,
			`.share-actions__secondary-action`,
		},
	}
}
