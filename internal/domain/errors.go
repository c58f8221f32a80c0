package domain

import (
	"errors"
	"fmt"
)

// Базовые категории ошибок. Ошибки остальных пакетов оборачивают их,
// чтобы обработчики могли классифицировать ошибку через errors.Is
var (
	// ErrInvalidInput некорректные входные данные, отклоняются до запуска саги
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized токен отсутствует, недействителен или истек
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden у вызывающего нет прав на операцию
	ErrForbidden = errors.New("forbidden")

	// ErrExternalUnavailable внешний сервис вернул ошибку или не ответил вовремя
	ErrExternalUnavailable = errors.New("external service unavailable")

	// ErrIllegalTransition переход статуса не разрешен таблицей переходов
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrConflict конкурентная запись изменила бронирование после чтения
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrDuplicateID бронирование с таким идентификатором уже существует
	ErrDuplicateID = errors.New("duplicate reservation id")

	// ErrNotFound бронирование не найдено
	ErrNotFound = errors.New("reservation not found")
)

// ErrImmutableField изменение поля, которое не меняется после создания
var ErrImmutableField = fmt.Errorf("%w: immutable field changed", ErrInvalidInput)
