package domain

// Slot granularity: every booking boundary must align to this unit
const SlotUnitMinutes = 30

// Default configuration values
const (
	DefaultAutoConfirmLeadMinutes = 120
)

// Business validation constants
const (
	MinAutoConfirmLeadMinutes   = 0
	MaxAutoConfirmLeadMinutes   = 1440 // сутки
	MaxBookingDurationMinutes   = 480  // 8 часов
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// TerminalStatuses статусы, из которых автоматизация не выводит бронирование
var TerminalStatuses = []BookingStatus{
	StatusCanceled,
	StatusAbsent,
}

// AutomatableStatuses статусы, в которых бронирование является кандидатом
// для автоматических переходов
var AutomatableStatuses = []BookingStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
}

// ValidStatuses все допустимые статусы бронирования
var ValidStatuses = []BookingStatus{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusFinished,
	StatusCanceled,
	StatusAbsent,
}

// IsValidStatus проверяет, что строка является допустимым статусом
func IsValidStatus(s BookingStatus) bool {
	for _, status := range ValidStatuses {
		if status == s {
			return true
		}
	}
	return false
}
