package domain

import (
	"context"
	"errors"
	"fmt"
)

// Attempt — один шаг цепочки фолбэков.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// ErrChainExhausted возвращается, когда все шаги цепочки провалились.
var ErrChainExhausted = errors.New("все шаги цепочки провалились")

// FirstSuccess выполняет шаги по порядку и возвращает первый успешный
// результат. Добавление или удаление провайдера — правка данных, не кода.
func FirstSuccess[T any](ctx context.Context, attempts []Attempt[T], onFail func(name string, err error)) (T, string, error) {
	var zero T
	var lastErr error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		out, err := a.Run(ctx)
		if err == nil {
			return out, a.Name, nil
		}
		lastErr = err
		if onFail != nil {
			onFail(a.Name, err)
		}
	}
	if lastErr != nil {
		return zero, "", fmt.Errorf("%w: %w", ErrChainExhausted, lastErr)
	}
	return zero, "", ErrChainExhausted
}
