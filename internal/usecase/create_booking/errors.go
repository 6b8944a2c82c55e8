package create_booking

import "errors"

var (
	// ErrClubNotFound возвращается, когда клуб не найден
	ErrClubNotFound = errors.New("create_booking: club not found")

	// ErrCourtNotFound возвращается, когда корт не найден в клубе
	ErrCourtNotFound = errors.New("create_booking: court not found")

	// ErrCourtInactive возвращается, когда корт выведен из эксплуатации
	ErrCourtInactive = errors.New("create_booking: court is not active")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("create_booking: access denied")

	// ErrClubClosed возвращается, когда клуб закрыт в указанный день
	ErrClubClosed = errors.New("create_booking: club is closed on this day")

	// ErrStartInPast возвращается, когда начало бронирования уже прошло
	ErrStartInPast = errors.New("create_booking: start time is in the past")

	// ErrInvalidTimeSlot возвращается, когда границы не выровнены по сетке
	// слотов или диапазон вывернут
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrSlotNotAvailable возвращается, когда диапазон пересекается с
	// активным бронированием или выходит за рабочие часы
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
