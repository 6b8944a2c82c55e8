package participant

import "errors"

var (
	// ErrParticipantNotFound возвращается, когда строка участника не найдена
	ErrParticipantNotFound = errors.New("participant.repository: participant not found")

	// ErrDuplicatePosition возвращается при нарушении уникальности позиции
	// среди активных строк бронирования
	ErrDuplicatePosition = errors.New("participant.repository: duplicate position in booking")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("participant.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("participant.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("participant.repository: failed to scan row")
)
