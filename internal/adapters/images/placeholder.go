package images

import (
	"fmt"
	"net/url"
)

const (
	placeholderBaseURL = "https://picsum.photos"
	placeholderWidth   = 1200
	placeholderHeight  = 630
	seedMaxRunes       = 20
)

// PlaceholderURL строит детерминированный URL заглушки: одна и та же тема
// всегда даёт одну и ту же картинку, что упрощает воспроизводимые тесты.
func PlaceholderURL(topic string) string {
	seed := topic
	if runes := []rune(seed); len(runes) > seedMaxRunes {
		seed = string(runes[:seedMaxRunes])
	}
	if seed == "" {
		seed = "tech"
	}
	return fmt.Sprintf("%s/seed/%s/%d/%d", placeholderBaseURL, url.PathEscape(seed), placeholderWidth, placeholderHeight)
}
