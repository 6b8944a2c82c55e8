package get_free_intervals

import "errors"

var (
	// ErrClubNotFound возвращается, когда клуб не найден
	ErrClubNotFound = errors.New("get_free_intervals: club not found")

	// ErrCourtNotFound возвращается, когда корт не найден в клубе
	ErrCourtNotFound = errors.New("get_free_intervals: court not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_free_intervals: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_free_intervals: internal error")
)
