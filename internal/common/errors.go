// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки участников
var (
	// ErrMemberNotFound — участник не найден в базе
	ErrMemberNotFound = errors.New("участник не найден")
)

// Ошибки таблицы ключевых слов
var (
	// ErrKeywordTableEmpty — файл ключевых слов пуст
	ErrKeywordTableEmpty = errors.New("таблица ключевых слов пуста")
	// ErrKeywordInvalid — пустое ключевое слово или некорректный вес
	ErrKeywordInvalid = errors.New("некорректное ключевое слово")
)

// Ошибки лог-канала
var (
	// ErrLogChannelNotSet — лог-канал не сохранён
	ErrLogChannelNotSet = errors.New("лог-канал не задан")
)

// Ошибки модерации
var (
	// ErrNotAdmin — пользователь не может управлять логированием
	ErrNotAdmin = errors.New("у вас нет прав на эту команду")
	// ErrChatNotModerated — команда управления доступна только в модерируемых чатах
	ErrChatNotModerated = errors.New("чат не модерируется")
	// ErrKickFailed — не удалось исключить пользователя из чата
	ErrKickFailed = errors.New("не удалось исключить пользователя")
)
