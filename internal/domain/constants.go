package domain

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Роли вызывающих
const (
	RoleClient    = "cliente"
	RoleReception = "recepcionista"
	RoleAdmin     = "admin"
)

// Области действия внутренних токенов, которые уже роли вызывающего
const (
	ScopeReservationsRead  = "reservations:read"
	ScopeReservationsWrite = "reservations:write"
)

// Validation constants
const (
	MaxIDLength   = 50 // reservas.*_id VARCHAR(50)
	MaxStayNights = 90
)
