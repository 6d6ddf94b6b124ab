package domain

import "errors"

// ErrNotConfigured возвращается при отсутствующем или пустом ключе провайдера.
// Проверяется до любого сетевого вызова, без повторов.
var ErrNotConfigured = errors.New("провайдер не настроен: отсутствует ключ API")

// ErrElementNotFound возвращается, когда ни одна стратегия селекторов
// не нашла видимый элемент за отведённое число попыток.
var ErrElementNotFound = errors.New("элемент страницы не найден")

// ErrUserCancelled — пользователь отклонил публикацию. Не ошибка потока.
var ErrUserCancelled = errors.New("публикация отменена пользователем")

// ErrNoDraft возвращается, когда текущего черновика нет или он истёк.
var ErrNoDraft = errors.New("нет текущего черновика поста")

// ErrNoTopics возвращается, когда все кандидаты отфильтрованы историей.
var ErrNoTopics = errors.New("все актуальные темы недавно использованы")
