package clubservice

import "errors"

var (
	// ErrClubNotFound возвращается, когда клуб не найден
	ErrClubNotFound = errors.New("club not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("clubservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("clubservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Указывает, что ClubService недоступен и вызывающий код должен
	// продолжить работу по последним известным данным
	ErrServiceDegraded = errors.New("clubservice unavailable: graceful degradation applied")
)
