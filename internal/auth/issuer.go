package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// DefaultAlgorithm алгоритм подписи по умолчанию
const DefaultAlgorithm = "HS256"

var allowedAlgorithms = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// Config параметры выпуска токенов, загружаются один раз при старте процесса
type Config struct {
	Secret     []byte
	Algorithm  string
	Issuer     string
	DefaultTTL time.Duration // время жизни внутреннего токена
	SessionTTL time.Duration // время жизни внешнего сессионного токена, верхняя граница для DefaultTTL
}

// Issuer выпускает и проверяет короткоживущие токены для вызовов между сервисами
// Не хранит состояния кроме ключа подписи, безопасен для конкурентного использования
type Issuer struct {
	key        []byte
	method     jwt.SigningMethod
	issuer     string
	defaultTTL time.Duration
	sessionTTL time.Duration
	clock      clock.Clock
}

// Option настраивает Issuer
type Option func(*Issuer)

// WithClock подменяет источник времени (для тестов)
func WithClock(c clock.Clock) Option {
	return func(i *Issuer) {
		if c != nil {
			i.clock = c
		}
	}
}

// NewIssuer создает Issuer из конфигурации
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrInvalidConfig)
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := allowedAlgorithms[alg]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidConfig, alg)
	}

	if cfg.DefaultTTL <= 0 {
		return nil, fmt.Errorf("%w: default ttl must be positive", ErrInvalidConfig)
	}
	if cfg.SessionTTL > 0 && cfg.DefaultTTL >= cfg.SessionTTL {
		return nil, fmt.Errorf("%w: %v >= %v", ErrTTLTooLong, cfg.DefaultTTL, cfg.SessionTTL)
	}

	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)

	i := &Issuer{
		key:        key,
		method:     method,
		issuer:     cfg.Issuer,
		defaultTTL: cfg.DefaultTTL,
		sessionTTL: cfg.SessionTTL,
		clock:      clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue выпускает токен для identity
// Пустой scope означает роль вызывающего, ttl <= 0 означает время жизни по умолчанию
func (i *Issuer) Issue(identity domain.Identity, scope string, ttl time.Duration) (string, *Claims, error) {
	if identity.IsZero() {
		return "", nil, ErrMissingIdentity
	}
	if identity.Role == "" {
		identity.Role = domain.RoleClient
	}

	scope, err := narrowScope(identity, scope)
	if err != nil {
		return "", nil, err
	}

	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	if i.sessionTTL > 0 && ttl >= i.sessionTTL {
		return "", nil, fmt.Errorf("%w: %v >= %v", ErrTTLTooLong, ttl, i.sessionTTL)
	}

	// NumericDate кодируется с точностью до секунды
	issuedAt := i.clock.Now().Truncate(time.Second)

	claims := &Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     identity.Role,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   identity.UserID,
			Audience:  jwt.ClaimStrings{AudienceInternal},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(i.method, claims).SignedString(i.key)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, claims, nil
}

// Verify проверяет внутренний токен: подпись, срок действия и аудиторию
// Истечение проверяется строго: токен недействителен начиная с момента expires_at
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if !claims.internal() {
		return nil, fmt.Errorf("%w: want %q, have %v", ErrWrongAudience, AudienceInternal, claims.Audience)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id claim is empty", ErrMalformed)
	}
	return claims, nil
}

// VerifyScope проверяет внутренний токен и то, что его scope покрывает требуемую область
func (i *Issuer) VerifyScope(token, scope string) (*Claims, error) {
	claims, err := i.Verify(token)
	if err != nil {
		return nil, err
	}
	if !claims.Allows(scope) {
		return nil, fmt.Errorf("%w: have %q, need %q", ErrInsufficientScope, claims.Scope, scope)
	}
	return claims, nil
}

// VerifySession проверяет сессионный токен вызывающего
// Внутренние токены отклоняются, идентичность читается и из полей usuario_id/rol
func (i *Issuer) VerifySession(token string) (*Claims, error) {
	claims, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.internal() {
		return nil, fmt.Errorf("%w: internal token presented as session", ErrWrongAudience)
	}
	if claims.Identity().UserID == "" {
		return nil, fmt.Errorf("%w: user id claim is empty", ErrMalformed)
	}
	return claims, nil
}

func (i *Issuer) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return claims, nil
}

// narrowScope проверяет, что scope не шире роли вызывающего
func narrowScope(identity domain.Identity, scope string) (string, error) {
	switch scope {
	case "":
		return identity.Role, nil
	case identity.Role, domain.ScopeReservationsRead, domain.ScopeReservationsWrite:
		return scope, nil
	default:
		return "", fmt.Errorf("%w: scope=%q role=%q", ErrScopeNotAllowed, scope, identity.Role)
	}
}
