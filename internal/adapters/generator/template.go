package generator

import (
	"context"
	"math/rand"
	"strings"

	"li-post-bot/internal/domain"
)

// Фиксированные шаблоны с плейсхолдером {topic}. Подстановка дословная.
var templates = []string{
	"🚀 {topic} is transforming how we approach modern tech challenges.\n\nKey insights:\n• Enhanced automation capabilities\n• Improved scalability and performance\n• Better integration with AI systems\n\nWhat's your experience with {topic} implementation?\n\n#TechTrends #Innovation #DigitalTransformation #TechLeadership #FutureOfWork",
	"💡 Diving deep into {topic} and the implications are game-changing.\n\nWhy it matters now:\n✅ Addresses current market demands\n✅ Enhances operational efficiency\n✅ Prepares organizations for future challenges\n\nAre you leveraging {topic} in your tech stack?\n\n#Technology #Innovation #AI #CloudComputing #TechStrategy",
	"🔥 {topic} is becoming essential for competitive advantage.\n\nWhat I've observed:\n→ Rapid adoption across industries\n→ Significant ROI when implemented correctly\n→ Critical for staying ahead of the curve\n\nShare your thoughts on {topic} adoption!\n\n#TechInnovation #DigitalStrategy #ModernTech #TechTrends #Leadership",
	"⚡ The evolution of {topic} is reshaping entire industries.\n\nCurrent focus areas:\n• Security and compliance integration\n• Performance optimization\n• User experience enhancement\n• Cost-effective scaling\n\nHow is {topic} impacting your organization?\n\n#TechEvolution #Cybersecurity #CloudNative #Innovation #TechLeadership",
}

// Template — детерминированный локальный генератор без I/O.
// Последний рубеж цепочки провайдеров: не умеет падать,
// вызывающий всегда получает непустой текст.
type Template struct {
	pick func(n int) int
}

var _ domain.Generator = (*Template)(nil)

// NewTemplate создаёт генератор со случайным выбором шаблона.
func NewTemplate() *Template {
	return &Template{pick: rand.Intn}
}

// NewTemplateSeeded создаёт генератор с управляемым выбором шаблона.
// Нужен тестам, которым важна воспроизводимость.
func NewTemplateSeeded(pick func(n int) int) *Template {
	return &Template{pick: pick}
}

// Generate подставляет тему в один из шаблонов. Ошибок не бывает.
func (t *Template) Generate(ctx context.Context, topic string) (string, error) {
	tpl := templates[t.pick(len(templates))]
	return strings.ReplaceAll(tpl, "{topic}", topic), nil
}
