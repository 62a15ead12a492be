// Package trust решает, освобождает ли стаж в чате от модерации.
package trust

import "time"

const day = 24 * time.Hour

// Policy — настройки освобождения «старожилов».
type Policy struct {
	IgnoreLongtimeUsers       bool // Выключено = никто не освобождён
	LongtimeUserThresholdDays int  // Сколько дней в чате нужно для доверия
}

// DefaultPolicy: старожилы с 7 днями стажа не модерируются.
func DefaultPolicy() Policy {
	return Policy{IgnoreLongtimeUsers: true, LongtimeUserThresholdDays: 7}
}

// Threshold возвращает требуемый стаж.
func (p Policy) Threshold() time.Duration {
	return time.Duration(p.LongtimeUserThresholdDays) * day
}

// IsTrustworthy возвращает true, если пользователь в чате не меньше порога.
// Неизвестная дата вступления (zero time) доверия не даёт.
func IsTrustworthy(joinedAt, now time.Time, p Policy) bool {
	if !p.IgnoreLongtimeUsers {
		return false
	}
	if joinedAt.IsZero() {
		return false
	}
	return now.Sub(joinedAt) >= p.Threshold()
}
