package models

import (
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// ClientRefInput ссылка на клиента во входных данных
type ClientRefInput struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// SaveParticipantsRequest запрос на сохранение итогового списка участников.
// Порядок списка - источник истины, дубликаты клиентов допустимы.
type SaveParticipantsRequest struct {
	UserID       int64            `json:"userId"`
	Participants []ClientRefInput `json:"participants"`
}

// ToDomainSelection конвертирует вход в domain ссылки
func (r *SaveParticipantsRequest) ToDomainSelection() []domain.ClientRef {
	selection := make([]domain.ClientRef, 0, len(r.Participants))
	for _, p := range r.Participants {
		selection = append(selection, domain.ClientRef{
			ID:   p.ID,
			Name: p.Name,
			Code: p.Code,
		})
	}
	return selection
}

// ParticipantResponse участник в ответе API
type ParticipantResponse struct {
	ID               int64   `json:"id"`
	ClientID         int64   `json:"clientId"`
	DisplayName      string  `json:"displayName"`
	Position         int     `json:"position"`
	PaymentValue     float64 `json:"paymentValue"`
	PaymentStatus    string  `json:"paymentStatus"`
	PaymentMethodID  *int64  `json:"paymentMethodId,omitempty"`
	ApplyFee         bool    `json:"applyFee"`
	IsRepresentative bool    `json:"isRepresentative"`
}

// SaveParticipantsResponse результат сохранения списка участников.
// SkippedRows - число строк, отклонённых из-за конфликта позиций;
// остальные строки пакета применены.
type SaveParticipantsResponse struct {
	Participants []ParticipantResponse `json:"participants"`
	NoOp         bool                  `json:"noOp,omitempty"`
	SkippedRows  int                   `json:"skippedRows,omitempty"`
}

// FromDomainParticipants конвертирует domain участников в response модели
func FromDomainParticipants(rows []*domain.Participant) []ParticipantResponse {
	out := make([]ParticipantResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, ParticipantResponse{
			ID:               p.ID,
			ClientID:         p.ClientID,
			DisplayName:      p.DisplayName,
			Position:         p.Position,
			PaymentValue:     p.PaymentValue,
			PaymentStatus:    string(p.PaymentStatus),
			PaymentMethodID:  p.PaymentMethodID,
			ApplyFee:         p.ApplyFee,
			IsRepresentative: p.IsRepresentative,
		})
	}
	return out
}
