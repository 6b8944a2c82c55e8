package create_booking

import (
	"time"

	createBooking "github.com/m04kA/SMC-CourtBookingService/internal/usecase/create_booking"
)

// ParticipantInput участник в HTTP запросе
type ParticipantInput struct {
	ClientID int64  `json:"clientId"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ClubID       int64              `json:"clubId"`
	CourtID      int64              `json:"courtId"`
	StartsAt     string             `json:"startsAt"` // RFC3339
	EndsAt       string             `json:"endsAt"`   // RFC3339
	Participants []ParticipantInput `json:"participants"`
	Notes        *string            `json:"notes,omitempty"`
}

// ParticipantResponse участник в HTTP ответе
type ParticipantResponse struct {
	ID               int64  `json:"id"`
	ClientID         int64  `json:"clientId"`
	DisplayName      string `json:"displayName"`
	Position         int    `json:"position"`
	IsRepresentative bool   `json:"isRepresentative"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID           int64                 `json:"id"`
	ClubID       int64                 `json:"clubId"`
	CourtID      int64                 `json:"courtId"`
	StartsAt     string                `json:"startsAt"`
	EndsAt       string                `json:"endsAt"`
	Status       string                `json:"status"`
	Modality     string                `json:"modality,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	Notes        *string               `json:"notes,omitempty"`
	CreatedAt    string                `json:"createdAt"`
	UpdatedAt    string                `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil, err
	}

	endsAt, err := time.Parse(time.RFC3339, r.EndsAt)
	if err != nil {
		return nil, err
	}

	participants := make([]createBooking.ParticipantInput, 0, len(r.Participants))
	for _, p := range r.Participants {
		participants = append(participants, createBooking.ParticipantInput{
			ClientID: p.ClientID,
			Name:     p.Name,
			Code:     p.Code,
		})
	}

	return &createBooking.Request{
		UserID:       userID,
		ClubID:       r.ClubID,
		CourtID:      r.CourtID,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Participants: participants,
		Notes:        r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:           resp.ID,
		ClubID:       resp.ClubID,
		CourtID:      resp.CourtID,
		StartsAt:     resp.StartsAt.Format(time.RFC3339),
		EndsAt:       resp.EndsAt.Format(time.RFC3339),
		Status:       resp.Status,
		Modality:     resp.Modality,
		Participants: make([]ParticipantResponse, 0, len(resp.Participants)),
		Notes:        resp.Notes,
		CreatedAt:    resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    resp.UpdatedAt.Format(time.RFC3339),
	}

	for _, p := range resp.Participants {
		out.Participants = append(out.Participants, ParticipantResponse{
			ID:               p.ID,
			ClientID:         p.ClientID,
			DisplayName:      p.DisplayName,
			Position:         p.Position,
			IsRepresentative: p.IsRepresentative,
		})
	}

	return out
}
