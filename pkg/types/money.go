package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMoney возвращается при некорректном денежном значении
var ErrInvalidMoney = errors.New("invalid money value")

// Money денежная сумма в минимальных единицах (центах)
// В JSON и в БД представляется строкой с двумя знаками после точки: "250.00"
type Money int64

// NewMoneyFromString парсит сумму вида "250", "250.5" или "250.00"
func NewMoneyFromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidMoney)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if len(frac) == 1 {
		frac += "0"
	}
	if frac == "" {
		frac = "00"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidMoney, s)
	}

	total := units*100 + cents
	if negative {
		total = -total
	}
	return Money(total), nil
}

// Cents возвращает сумму в центах
func (m Money) Cents() int64 {
	return int64(m)
}

// IsPositive проверяет, что сумма больше нуля
func (m Money) IsPositive() bool {
	return m > 0
}

// String возвращает сумму в формате "250.00"
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON сериализует сумму строкой
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON принимает как строку "250.00", так и число 250.00
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMoney, err)
		}
	} else {
		s = string(data)
	}

	parsed, err := NewMoneyFromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value реализует driver.Valuer для столбцов NUMERIC(10,2)
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan реализует sql.Scanner
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		parsed, err := NewMoneyFromString(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case string:
		parsed, err := NewMoneyFromString(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		*m = Money(v * 100)
		return nil
	case float64:
		*m = Money(math.Round(v * 100))
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidMoney, src)
	}
}
