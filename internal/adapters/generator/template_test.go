package generator

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateSubstitutesTopic(t *testing.T) {
	for i := range templates {
		i := i
		gen := NewTemplateSeeded(func(int) int { return i })
		out, err := gen.Generate(context.Background(), "Platform Engineering")
		if err != nil {
			t.Fatalf("шаблон %d: %v", i, err)
		}
		if !strings.Contains(out, "Platform Engineering") {
			t.Fatalf("шаблон %d: тема не подставлена: %q", i, out)
		}
		if strings.Contains(out, "{topic}") {
			t.Fatalf("шаблон %d: остался плейсхолдер: %q", i, out)
		}
		if strings.Count(out, "#") < 3 {
			t.Fatalf("шаблон %d: ожидали минимум три хэштега, получили %d", i, strings.Count(out, "#"))
		}
	}
}

func TestTemplateNeverFails(t *testing.T) {
	gen := NewTemplate()
	out, err := gen.Generate(context.Background(), "")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if out == "" {
		t.Fatal("ожидали непустой текст")
	}
}
