package auth

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInvalidSignature подпись токена не совпадает или алгоритм не разрешен
	ErrInvalidSignature = fmt.Errorf("%w: auth: invalid token signature", domain.ErrUnauthorized)

	// ErrExpired текущее время достигло expires_at токена
	ErrExpired = fmt.Errorf("%w: auth: token expired", domain.ErrUnauthorized)

	// ErrMalformed токен не разбирается или не содержит идентичность
	ErrMalformed = fmt.Errorf("%w: auth: malformed token", domain.ErrUnauthorized)

	// ErrMissingIdentity токен запрошен без идентичности вызывающего
	ErrMissingIdentity = fmt.Errorf("%w: auth: missing caller identity", domain.ErrUnauthorized)

	// ErrWrongAudience токен выпущен для другого назначения
	ErrWrongAudience = fmt.Errorf("%w: auth: token audience not accepted", domain.ErrUnauthorized)

	// ErrInsufficientScope scope токена не покрывает требуемую область
	ErrInsufficientScope = fmt.Errorf("%w: auth: insufficient token scope", domain.ErrForbidden)

	// ErrScopeNotAllowed запрошенная область расширяет права вызывающего
	ErrScopeNotAllowed = errors.New("auth: scope not allowed for caller")

	// ErrTTLTooLong время жизни внутреннего токена не короче сессионного
	ErrTTLTooLong = errors.New("auth: internal token ttl must be shorter than session ttl")

	// ErrInvalidConfig некорректная конфигурация выпуска токенов
	ErrInvalidConfig = errors.New("auth: invalid issuer configuration")
)
