package auth

import (
	"encoding/json"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// AudienceInternal аудитория внутренних токенов для вызовов между сервисами
// Такие токены не принимаются как сессионные
const AudienceInternal = "reservations-internal"

// Claims содержимое токена
// usuario_id и rol читаются из сессионных токенов сервиса аутентификации
type Claims struct {
	UserID       string     `json:"user_id,omitempty"`
	Username     string     `json:"username"`
	Role         string     `json:"role,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	LegacyUserID flexibleID `json:"usuario_id,omitempty"`
	LegacyRole   string     `json:"rol,omitempty"`
	jwt.RegisteredClaims
}

// Identity возвращает идентичность вызывающего, закодированную в токене
func (c *Claims) Identity() domain.Identity {
	identity := domain.Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
	if identity.UserID == "" {
		identity.UserID = string(c.LegacyUserID)
	}
	if identity.Role == "" {
		identity.Role = c.LegacyRole
	}
	if identity.Role == "" && identity.UserID != "" {
		identity.Role = domain.RoleClient
	}
	return identity
}

// Allows сообщает, разрешает ли scope токена требуемую область
// Область write включает read, scope-роль разрешает обе области бронирований
func (c *Claims) Allows(scope string) bool {
	switch c.Scope {
	case scope:
		return true
	case domain.ScopeReservationsWrite:
		return scope == domain.ScopeReservationsRead
	case domain.RoleClient, domain.RoleReception, domain.RoleAdmin:
		return scope == domain.ScopeReservationsRead || scope == domain.ScopeReservationsWrite
	default:
		return false
	}
}

func (c *Claims) internal() bool {
	return slices.Contains(c.Audience, AudienceInternal)
}

// flexibleID принимает идентификатор строкой или числом
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}
