package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay количество минут в сутках
const MinutesPerDay = 24 * 60

var (
	// ErrInvalidTimeFormat возвращается при некорректном формате времени (ожидается HH:MM)
	ErrInvalidTimeFormat = errors.New("types: invalid time format, expected HH:MM")

	// ErrTimeOutOfRange возвращается, когда результат операции выходит за пределы суток
	ErrTimeOutOfRange = errors.New("types: time is out of day range")
)

// TimeString время в формате "HH:MM" (например, "09:30")
// Используется для рабочих часов и границ слотов.
// Особый случай: "00:00" в позиции времени закрытия трактуется вызывающим
// кодом как конец суток (24:00), см. EndOfDayMinutes.
type TimeString string

// NewTimeString создает TimeString из time.Time (отбрасывает секунды)
func NewTimeString(t time.Time) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()))
}

// NewTimeStringFromString создает TimeString из строки с валидацией
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// NewTimeStringFromMinutes создает TimeString из количества минут с начала суток
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrTimeOutOfRange, minutes)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)), nil
}

// Validate проверяет формат времени
func (t TimeString) Validate() error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%w: %q", ErrInvalidTimeFormat, string(t))
	}

	hours, minutes, ok := t.parse()
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTimeFormat, string(t))
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeFormat, string(t))
	}

	return nil
}

// IsZero возвращает true для пустого значения
func (t TimeString) IsZero() bool {
	return t == ""
}

// Minutes возвращает количество минут с начала суток
func (t TimeString) Minutes() (int, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	hours, minutes, _ := t.parse()
	return hours*60 + minutes, nil
}

// EndOfDayMinutes возвращает количество минут с начала суток, трактуя
// "00:00" как конец суток (1440 минут). Используется для времени закрытия.
func (t TimeString) EndOfDayMinutes() (int, error) {
	m, err := t.Minutes()
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return MinutesPerDay, nil
	}
	return m, nil
}

// IsBefore возвращает true, если время строго раньше other
func (t TimeString) IsBefore(other TimeString) bool {
	return string(t) < string(other)
}

// IsAfter возвращает true, если время строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	return string(t) > string(other)
}

// AddMinutes возвращает время, сдвинутое на minutes минут вперед
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	current, err := t.Minutes()
	if err != nil {
		return "", err
	}

	total := current + minutes
	if total < 0 || total > MinutesPerDay {
		return "", fmt.Errorf("%w: %s + %d minutes", ErrTimeOutOfRange, string(t), minutes)
	}

	// Ровно конец суток представляем как "00:00" следующего дня
	if total == MinutesPerDay {
		return TimeString("00:00"), nil
	}

	return TimeString(fmt.Sprintf("%02d:%02d", total/60, total%60)), nil
}

// OnDate возвращает момент времени на указанную дату
func (t TimeString) OnDate(date time.Time) (time.Time, error) {
	m, err := t.Minutes()
	if err != nil {
		return time.Time{}, err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(time.Duration(m) * time.Minute), nil
}

// Value реализует driver.Valuer для записи в БД
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return string(t), nil
}

// Scan реализует sql.Scanner для чтения из БД
func (t *TimeString) Scan(src interface{}) error {
	if src == nil {
		*t = ""
		return nil
	}

	switch v := src.(type) {
	case string:
		// PostgreSQL может вернуть "HH:MM:SS" для колонок типа time
		if len(v) >= 5 {
			v = v[:5]
		}
		*t = TimeString(v)
	case []byte:
		s := string(v)
		if len(s) >= 5 {
			s = s[:5]
		}
		*t = TimeString(s)
	case time.Time:
		*t = NewTimeString(v)
	default:
		return fmt.Errorf("%w: unsupported source type %T", ErrInvalidTimeFormat, src)
	}

	return t.Validate()
}

// parse разбирает "HH:MM" на часы и минуты
func (t TimeString) parse() (hours, minutes int, ok bool) {
	if len(t) != 5 || t[2] != ':' {
		return 0, 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if t[i] < '0' || t[i] > '9' {
			return 0, 0, false
		}
	}
	hours = int(t[0]-'0')*10 + int(t[1]-'0')
	minutes = int(t[3]-'0')*10 + int(t[4]-'0')
	return hours, minutes, true
}
