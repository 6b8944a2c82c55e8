// Package reconciler реализует слияние пользовательского выбора участников
// с сохранёнными строками. Алгоритм чистый: вход - активные строки и итоговый
// выбор клиентов, выход - план изменений (updates / inserts / soft deletes).
// Платёжные данные никогда не переносятся между разными клиентами.
package reconciler

import (
	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// Plan план изменений списка участников одного бронирования.
// Применяется хранилищем построчно, порядок: soft deletes, updates, inserts -
// освобождённые позиции становятся доступными до их повторного использования.
type Plan struct {
	Updates       []*domain.Participant
	Inserts       []*domain.Participant
	SoftDeleteIDs []int64
}

// IsEmpty возвращает true, если план не содержит изменений
func (p *Plan) IsEmpty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0 && len(p.SoftDeleteIDs) == 0
}

// SelectionChanged сравнивает упорядоченный список клиентов выбора
// с сохранёнными активными строками. Любое отличие в идентичности или
// позиции считается изменением; сортировка не применяется.
func SelectionChanged(old []*domain.Participant, selection []domain.ClientRef) bool {
	if len(old) != len(selection) {
		return true
	}

	for i, row := range old {
		if row.ClientID != selection[i].ID {
			return true
		}
	}

	return false
}

// BuildPlan строит план слияния выбора в сохранённые строки.
// Ветка выбирается по наличию платёжных данных в старых строках:
// без платежей - позиционный дифф, с платежами - сопоставление
// по идентичности клиента (FIFO-очереди на клиента, дубликаты допустимы).
func BuildPlan(bookingID int64, old []*domain.Participant, selection []domain.ClientRef) *Plan {
	if hasAnyPayment(old) {
		return buildIdentityPlan(bookingID, old, selection)
	}
	return buildPositionalPlan(bookingID, old, selection)
}

// hasAnyPayment возвращает true, если хотя бы одна строка несёт платёжные данные
func hasAnyPayment(old []*domain.Participant) bool {
	for _, row := range old {
		if row.HasPayment() {
			return true
		}
	}
	return false
}

// buildPositionalPlan позиционный дифф: пока платежей нет, строки можно
// переиспользовать по индексу. Совпадение клиента на той же позиции сохраняет
// платёжные поля, несовпадение - сбрасывает их в значения по умолчанию.
func buildPositionalPlan(bookingID int64, old []*domain.Participant, selection []domain.ClientRef) *Plan {
	plan := &Plan{}

	common := len(old)
	if len(selection) < common {
		common = len(selection)
	}

	for i := 0; i < common; i++ {
		row := cloneParticipant(old[i])
		ref := selection[i]

		if row.ClientID != ref.ID {
			row.ClientID = ref.ID
			row.ResetPayment()
		}

		row.DisplayName = ref.Name
		row.Position = i + 1
		row.IsRepresentative = i == 0

		plan.Updates = append(plan.Updates, row)
	}

	// Хвост выбора длиннее старого списка - новые строки по умолчанию
	for i := common; i < len(selection); i++ {
		plan.Inserts = append(plan.Inserts, newDefaultRow(bookingID, selection[i], i+1))
	}

	// Хвост старого списка длиннее выбора - мягкое удаление
	for i := common; i < len(old); i++ {
		plan.SoftDeleteIDs = append(plan.SoftDeleteIDs, old[i].ID)
	}

	return plan
}

// buildIdentityPlan сопоставление по идентичности: платёжные данные уже есть,
// перетирать их позиционным диффом нельзя. Старые строки раскладываются в
// FIFO-очереди по client_id; каждая позиция выбора потребляет следующую
// свободную строку своего клиента либо получает новую строку по умолчанию.
func buildIdentityPlan(bookingID int64, old []*domain.Participant, selection []domain.ClientRef) *Plan {
	plan := &Plan{}

	buckets := make(map[int64][]*domain.Participant, len(old))
	for _, row := range old {
		buckets[row.ClientID] = append(buckets[row.ClientID], row)
	}

	for i, ref := range selection {
		queue := buckets[ref.ID]
		if len(queue) > 0 {
			row := cloneParticipant(queue[0])
			buckets[ref.ID] = queue[1:]

			row.DisplayName = ref.Name
			row.Position = i + 1
			row.IsRepresentative = i == 0

			plan.Updates = append(plan.Updates, row)
			continue
		}

		plan.Inserts = append(plan.Inserts, newDefaultRow(bookingID, ref, i+1))
	}

	// Непотреблённые строки мягко удаляются
	for _, queue := range buckets {
		for _, row := range queue {
			plan.SoftDeleteIDs = append(plan.SoftDeleteIDs, row.ID)
		}
	}

	return plan
}

// newDefaultRow создает новую строку участника с платёжными полями по умолчанию
func newDefaultRow(bookingID int64, ref domain.ClientRef, position int) *domain.Participant {
	return &domain.Participant{
		BookingID:        bookingID,
		ClientID:         ref.ID,
		DisplayName:      ref.Name,
		Position:         position,
		PaymentValue:     0,
		PaymentStatus:    domain.PaymentPending,
		IsRepresentative: position == 1,
	}
}

// cloneParticipant копирует строку, чтобы план не мутировал вход
func cloneParticipant(row *domain.Participant) *domain.Participant {
	clone := *row
	return &clone
}
