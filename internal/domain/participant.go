package domain

import "time"

// PaymentStatus represents the payment state of a participant's share
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ClientRef единое представление ссылки на клиента.
// Используется во входных данных вместо смеси "голое имя / структура".
type ClientRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Participant represents one share of a booking held by a client.
// Дубликаты ClientID допустимы: один клиент может занимать несколько мест.
type Participant struct {
	ID          int64
	BookingID   int64
	ClientID    int64
	DisplayName string
	Position    int // 1-based, непрерывная последовательность среди активных строк

	PaymentValue    float64
	PaymentStatus   PaymentStatus
	PaymentMethodID *int64
	ApplyFee        bool

	// IsRepresentative помечает основного (платёжного) участника.
	// Инвариант: ровно одна активная строка с этим флагом, всегда Position = 1.
	IsRepresentative bool

	DeletedAt *time.Time // soft delete, строки не удаляются физически
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDeleted returns true if the row was soft-deleted
func (p *Participant) IsDeleted() bool {
	return p.DeletedAt != nil
}

// HasPayment returns true if any payment data was recorded on the row
func (p *Participant) HasPayment() bool {
	return p.PaymentValue > 0 || p.PaymentStatus == PaymentPaid
}

// ResetPayment сбрасывает платёжные поля в значения по умолчанию
func (p *Participant) ResetPayment() {
	p.PaymentValue = 0
	p.PaymentStatus = PaymentPending
	p.PaymentMethodID = nil
	p.ApplyFee = false
}
