package create_booking

import (
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// ParticipantInput участник в запросе на создание бронирования.
// Первый элемент списка становится представителем (позиция 1).
type ParticipantInput struct {
	ClientID int64
	Name     string
	Code     string
}

// Request модель запроса на создание бронирования
type Request struct {
	UserID       int64              // ID пользователя (менеджер клуба)
	ClubID       int64              // ID клуба
	CourtID      int64              // ID корта
	StartsAt     time.Time          // Начало бронирования
	EndsAt       time.Time          // Конец бронирования
	Participants []ParticipantInput // Итоговый список участников
	Notes        *string            // Дополнительные заметки (опционально)
}

// toSelection конвертирует участников запроса в domain ссылки
func (r *Request) toSelection() []domain.ClientRef {
	selection := make([]domain.ClientRef, 0, len(r.Participants))
	for _, p := range r.Participants {
		selection = append(selection, domain.ClientRef{
			ID:   p.ClientID,
			Name: p.Name,
			Code: p.Code,
		})
	}
	return selection
}

// ParticipantResult участник в ответе
type ParticipantResult struct {
	ID               int64
	ClientID         int64
	DisplayName      string
	Position         int
	IsRepresentative bool
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID           int64
	ClubID       int64
	CourtID      int64
	StartsAt     time.Time
	EndsAt       time.Time
	Status       string
	Modality     string
	Participants []ParticipantResult
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
