package topics

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

const minTopicLength = 6

// Ключевые слова доменной релевантности: заголовок проходит,
// если содержит хотя бы одно (без учёта регистра).
var techKeywords = []string{
	"ai", "ml", "llm", "gpt", "claude", "gemini", "agent", "automation",
	"security", "cyber", "zero-trust", "quantum", "encryption",
	"cloud", "aws", "azure", "gcp", "kubernetes", "docker", "serverless",
	"api", "graphql", "rest", "microservices", "distributed",
	"dev", "code", "programming", "typescript", "rust", "go", "python",
	"react", "next", "vue", "svelte", "astro", "vite",
	"blockchain", "web3", "defi", "nft", "crypto",
	"iot", "edge", "wasm", "webassembly", "bun", "deno",
	"observability", "monitoring", "logging", "tracing",
	"devops", "cicd", "gitops", "platform", "sre",
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "are": {}, "was": {}, "were": {}, "been": {}, "have": {},
	"has": {}, "had": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "can": {}, "how": {}, "why": {}, "what": {},
	"when": {}, "where": {}, "who": {},
}

// Кураторский запасной список: пайплайн никогда не остаётся без кандидатов.
var fallbackTopics = []string{
	"Multimodal AI Integration in Enterprise",
	"AI Agents for Cybersecurity Automation",
	"Edge AI and Local LLM Deployment",
	"AI-Powered Code Review Systems",
	"Retrieval-Augmented Generation (RAG)",
	"Zero Trust Architecture Implementation",
	"AI-Driven Threat Detection",
	"Supply Chain Security Hardening",
	"Quantum-Resistant Cryptography",
	"Cloud Security Posture Management",
	"Multi-Cloud Cost Optimization",
	"Serverless Security Best Practices",
	"Kubernetes Security Hardening",
	"Infrastructure as Code Evolution",
	"Edge Computing Architecture",
	"Platform Engineering Adoption",
	"GitOps Workflow Optimization",
	"API-First Development Strategy",
	"Distributed System Resilience",
	"WebAssembly in Production",
}

var splitPattern = regexp.MustCompile(`[\s\-_.,;:!?()\[\]{}]+`)
var numericPattern = regexp.MustCompile(`^\d+$`)

// Aggregator собирает кандидатов тем из независимых источников.
type Aggregator struct {
	sources []domain.TopicSource
	log     zerolog.Logger
}

// NewAggregator создаёт агрегатор.
func NewAggregator(sources []domain.TopicSource, logger zerolog.Logger) *Aggregator {
	return &Aggregator{sources: sources, log: logger}
}

// Collect опрашивает включённые источники и возвращает дедуплицированный
// пул кандидатов. Упавший источник деградирует до пустого вклада и не
// мешает остальным; пустой итог заменяется кураторским списком.
func (a *Aggregator) Collect(ctx context.Context, enabled []string) []domain.TopicCandidate {
	enabledSet := make(map[string]struct{}, len(enabled))
	for _, name := range enabled {
		enabledSet[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var pool []domain.TopicCandidate
	for _, source := range a.sources {
		if _, ok := enabledSet[source.Name()]; !ok {
			continue
		}
		titles, err := source.Fetch(ctx)
		if err != nil {
			metrics.TopicFetchErrors.WithLabelValues(source.Name()).Inc()
			a.log.Warn().Str("source", source.Name()).Err(err).Msg("topics: источник недоступен")
			continue
		}
		count := 0
		for _, title := range titles {
			if !IsTechRelated(title) {
				continue
			}
			topic := ExtractTopic(title)
			if len(topic) < minTopicLength {
				continue
			}
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			pool = append(pool, domain.TopicCandidate{Text: topic})
			count++
		}
		metrics.TopicCandidates.WithLabelValues(source.Name()).Set(float64(count))
	}

	if len(pool) == 0 {
		a.log.Info().Msg("topics: источники пусты, используем кураторский список")
		return Fallback()
	}
	return pool
}

// Fallback возвращает копию кураторского списка.
func Fallback() []domain.TopicCandidate {
	out := make([]domain.TopicCandidate, 0, len(fallbackTopics))
	for _, t := range fallbackTopics {
		out = append(out, domain.TopicCandidate{Text: t})
	}
	return out
}

// IsTechRelated проверяет заголовок на доменную релевантность.
func IsTechRelated(title string) bool {
	lowered := strings.ToLower(title)
	for _, kw := range techKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// ExtractTopic выделяет из заголовка короткую фразу-тему: отбрасывает
// служебные и числовые слова, берёт первые 3 значимых слова, если их
// больше шести, иначе первые 4.
func ExtractTopic(title string) string {
	words := splitPattern.Split(title, -1)
	important := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 3 {
			continue
		}
		if numericPattern.MatchString(word) {
			continue
		}
		if _, stop := stopWords[strings.ToLower(word)]; stop {
			continue
		}
		important = append(important, word)
	}
	keep := 4
	if len(important) > 6 {
		keep = 3
	}
	if len(important) > keep {
		important = important[:keep]
	}
	return strings.Join(important, " ")
}
