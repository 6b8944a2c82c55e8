// Package allocator вычисляет свободные и занятые диапазоны времени
// для корта на конкретный день с учётом рабочих часов клуба.
// Все границы выровнены по единице слота (30 минут).
package allocator

import (
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
	"github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/pkg/types"
)

// span занятый полуинтервал в минутах от начала суток
type span struct {
	start int
	end   int
}

// Day сетка занятости корта на один день
type Day struct {
	midnight time.Time
	open     bool
	openMin  int // минуты от начала суток
	closeMin int // "00:00" времени закрытия трактуется как 1440
	busy     []span
}

// NewDay строит сетку занятости корта на день.
// bookings должны относиться к этому корту; отменённые игнорируются.
func NewDay(day time.Time, hours clubservice.DaySchedule, bookings []*domain.Booking) (*Day, error) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	d := &Day{midnight: midnight}

	if !hours.IsOpen || hours.OpenTime == nil || hours.CloseTime == nil {
		return d, nil
	}

	openTS, err := types.NewTimeStringFromString(*hours.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("%w: open time: %v", ErrInvalidSchedule, err)
	}
	closeTS, err := types.NewTimeStringFromString(*hours.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("%w: close time: %v", ErrInvalidSchedule, err)
	}

	openMin, err := openTS.Minutes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	// Время закрытия "00:00" означает конец суток (24:00), не начало
	closeMin, err := closeTS.EndOfDayMinutes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	if openMin >= closeMin {
		return nil, fmt.Errorf("%w: open %q is not before close %q", ErrInvalidSchedule, *hours.OpenTime, *hours.CloseTime)
	}

	d.open = true
	d.openMin = openMin
	d.closeMin = closeMin
	d.busy = buildBusySpans(midnight, bookings)

	return d, nil
}

// IsRangeFree возвращает true, если полуинтервал [start, end) целиком
// внутри рабочих часов и не пересекается ни с одним активным бронированием.
// Невыровненные или вывернутые границы - ошибка валидации, не "занято".
func (d *Day) IsRangeFree(start, end time.Time) (bool, error) {
	startMin, endMin, err := d.rangeMinutes(start, end)
	if err != nil {
		return false, err
	}

	if !d.open {
		return false, nil
	}

	// Диапазон должен целиком попадать в рабочие часы
	if startMin < d.openMin || endMin > d.closeMin {
		return false, nil
	}

	for _, b := range d.busy {
		// Строгие неравенства: граничащие интервалы не пересекаются
		if b.start < endMin && b.end > startMin {
			return false, nil
		}
	}

	return true, nil
}

// MaxFreeEndFrom возвращает максимальное время окончания, достижимое от start
// продлением по одной единице слота, пока диапазон остаётся свободным.
// ok = false, если сам start не свободен.
func (d *Day) MaxFreeEndFrom(start time.Time) (time.Time, bool, error) {
	end := start.Add(domain.SlotUnitMinutes * time.Minute)

	free, err := d.IsRangeFree(start, end)
	if err != nil {
		return time.Time{}, false, err
	}
	if !free {
		return time.Time{}, false, nil
	}

	for {
		next := end.Add(domain.SlotUnitMinutes * time.Minute)
		free, err := d.IsRangeFree(start, next)
		if err != nil || !free {
			break
		}
		end = next
	}

	return end, true, nil
}

// FreeIntervals возвращает упорядоченный список свободных полуинтервалов
// между активными бронированиями, обрезанный по рабочим часам
func (d *Day) FreeIntervals() []domain.TimeRange {
	intervals := make([]domain.TimeRange, 0)

	if !d.open {
		return intervals
	}

	cursor := d.openMin
	for _, b := range d.busy {
		// Занятые отрезки за пределами рабочих часов не двигают курсор левее открытия
		start := b.start
		if start > d.closeMin {
			start = d.closeMin
		}

		if start > cursor {
			intervals = append(intervals, d.toRange(cursor, start))
		}
		if b.end > cursor {
			cursor = b.end
		}
		if cursor >= d.closeMin {
			return intervals
		}
	}

	if cursor < d.closeMin {
		intervals = append(intervals, d.toRange(cursor, d.closeMin))
	}

	return intervals
}

// DayScheduleFor возвращает расписание работы клуба на день недели даты
func DayScheduleFor(week clubservice.WeekSchedule, date time.Time) clubservice.DaySchedule {
	switch date.Weekday() {
	case time.Monday:
		return week.Monday
	case time.Tuesday:
		return week.Tuesday
	case time.Wednesday:
		return week.Wednesday
	case time.Thursday:
		return week.Thursday
	case time.Friday:
		return week.Friday
	case time.Saturday:
		return week.Saturday
	case time.Sunday:
		return week.Sunday
	default:
		return clubservice.DaySchedule{IsOpen: false}
	}
}

// rangeMinutes конвертирует и валидирует границы диапазона
func (d *Day) rangeMinutes(start, end time.Time) (int, int, error) {
	if !start.Before(end) {
		return 0, 0, ErrInvalidRange
	}

	// Без обрезки по границам суток: момент за пределами дня даёт
	// startMin < openMin или endMin > closeMin и диапазон считается занятым
	startMin := int(start.Sub(d.midnight) / time.Minute)
	endMin := int(end.Sub(d.midnight) / time.Minute)

	if startMin%domain.SlotUnitMinutes != 0 || endMin%domain.SlotUnitMinutes != 0 {
		return 0, 0, fmt.Errorf("%w: %s - %s", ErrMisalignedRange,
			start.Format(domain.TimeFormat), end.Format(domain.TimeFormat))
	}

	return startMin, endMin, nil
}

func (d *Day) toRange(startMin, endMin int) domain.TimeRange {
	return domain.TimeRange{
		Start: d.midnight.Add(time.Duration(startMin) * time.Minute),
		End:   d.midnight.Add(time.Duration(endMin) * time.Minute),
	}
}

// buildBusySpans собирает отсортированные занятые отрезки из активных бронирований
func buildBusySpans(midnight time.Time, bookings []*domain.Booking) []span {
	spans := make([]span, 0, len(bookings))

	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}

		startMin := int(b.StartsAt.Sub(midnight) / time.Minute)
		endMin := int(b.EndsAt.Sub(midnight) / time.Minute)

		// Отрезаем части, выходящие за пределы дня
		if endMin <= 0 || startMin >= types.MinutesPerDay {
			continue
		}
		if startMin < 0 {
			startMin = 0
		}
		if endMin > types.MinutesPerDay {
			endMin = types.MinutesPerDay
		}

		spans = append(spans, span{start: startMin, end: endMin})
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start == spans[j].start {
			return spans[i].end < spans[j].end
		}
		return spans[i].start < spans[j].start
	})

	return spans
}
