package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64  `json:"userId"`
	CancellationReason string `json:"cancellationReason"`
}

// MarkAbsentRequest запрос на отметку неявки
type MarkAbsentRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

// UpdateStatusRequest запрос на ручное обновление статуса бронирования.
// ReactivateAutomation включает автоматизацию обратно после ранее
// отключённого бронирования.
type UpdateStatusRequest struct {
	UserID               int64  `json:"userId"`
	Status               string `json:"status"`
	ReactivateAutomation bool   `json:"reactivateAutomation,omitempty"`
}

// GetCourtBookingsRequest запрос на получение бронирований клуба
type GetCourtBookingsRequest struct {
	UserID          int64      `json:"userId"`
	ClubID          int64      `json:"clubId"`
	CourtID         *int64     `json:"courtId,omitempty"`
	From            *time.Time `json:"from,omitempty"`
	To              *time.Time `json:"to,omitempty"`
	Status          *string    `json:"status,omitempty"`
	IncludeInactive bool       `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetCourtBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		ClubID:          r.ClubID,
		CourtID:         r.CourtID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// ParticipantResponse участник бронирования в ответе API
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

// BookingResponse бронирование в ответе API
type BookingResponse struct {
	ID                 int64                 `json:"id"`
	ClubID             int64                 `json:"clubId"`
	CourtID            int64                 `json:"courtId"`
	StartsAt           time.Time             `json:"startsAt"`
	EndsAt             time.Time             `json:"endsAt"`
	Status             string                `json:"status"`
	Modality           string                `json:"modality,omitempty"`
	AutoDisabled       bool                  `json:"autoDisabled"`
	CanceledBy         *int64                `json:"canceledBy,omitempty"`
	CanceledAt         *time.Time            `json:"canceledAt,omitempty"`
	CancellationReason *string               `json:"cancellationReason,omitempty"`
	Notes              *string               `json:"notes,omitempty"`
	Participants       []ParticipantResponse `json:"participants,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	FromCache bool              `json:"fromCache,omitempty"`
}

// FromDomainBooking конвертирует domain бронирование в response модель
func FromDomainBooking(booking *domain.Booking, participants []*domain.Participant) *BookingResponse {
	resp := &BookingResponse{
		ID:                 booking.ID,
		ClubID:             booking.ClubID,
		CourtID:            booking.CourtID,
		StartsAt:           booking.StartsAt,
		EndsAt:             booking.EndsAt,
		Status:             string(booking.Status),
		Modality:           booking.Modality,
		AutoDisabled:       booking.AutoDisabled,
		CanceledBy:         booking.CanceledBy,
		CanceledAt:         booking.CanceledAt,
		CancellationReason: booking.CancellationReason,
		Notes:              booking.Notes,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	for _, p := range participants {
		resp.Participants = append(resp.Participants, FromDomainParticipant(p))
	}

	return resp
}

// FromDomainParticipant конвертирует domain участника в response модель
func FromDomainParticipant(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:               p.ID,
		ClientID:         p.ClientID,
		DisplayName:      p.DisplayName,
		Position:         p.Position,
		PaymentValue:     p.PaymentValue,
		PaymentStatus:    string(p.PaymentStatus),
		PaymentMethodID:  p.PaymentMethodID,
		ApplyFee:         p.ApplyFee,
		IsRepresentative: p.IsRepresentative,
	}
}

// ToDomainBookingStatus конвертирует строку в domain статус
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	candidate := domain.BookingStatus(status)
	if !domain.IsValidStatus(candidate) {
		return "", ErrInvalidStatus
	}
	return candidate, nil
}
