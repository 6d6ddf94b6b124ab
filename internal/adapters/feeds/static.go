package feeds

import (
	"context"

	"li-post-bot/internal/domain"
)

// Static отдаёт фиксированный кураторский список заголовков.
// У GitHub trending и dev.to нет пригодного публичного API,
// поэтому эти источники живут на поддерживаемых вручную списках.
type Static struct {
	name   string
	titles []string
}

var _ domain.TopicSource = (*Static)(nil)

// NewStatic создаёт источник с фиксированным списком.
func NewStatic(name string, titles []string) *Static {
	return &Static{name: name, titles: titles}
}

// Name возвращает имя источника.
func (s *Static) Name() string { return s.name }

// Fetch возвращает кураторский список. Сетевых вызовов нет, ошибок тоже.
func (s *Static) Fetch(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out, nil
}

// NewGitHubTrending — текущие трендовые темы GitHub.
func NewGitHubTrending() *Static {
	return NewStatic("github", []string{
		"AI Agents and Autonomous Systems",
		"Quantum Computing Applications",
		"Edge AI and Local LLMs",
		"WebAssembly Security",
		"Rust in Production Systems",
		"Multi-Modal AI Integration",
		"Zero-Trust Network Architecture",
		"Serverless Security Patterns",
		"AI-Powered Code Generation",
		"Distributed System Observability",
		"Container Runtime Security",
		"GraphQL Federation at Scale",
		"Real-time Collaborative AI",
		"Privacy-Preserving ML",
		"Sustainable Computing Practices",
	})
}

// NewDevTo — текущие темы сообщества dev.to.
func NewDevTo() *Static {
	return NewStatic("devto", []string{
		"Next.js 15 Performance Optimization",
		"TypeScript 5.7 New Features",
		"React Server Components",
		"Bun vs Node.js Performance",
		"Deno 2.0 Production Ready",
		"Astro Static Site Generation",
		"Svelte 5 Runes System",
		"Vue 3 Composition API",
		"Tailwind CSS v4 Features",
		"Vite Build Tool Optimization",
	})
}
