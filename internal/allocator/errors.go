package allocator

import "errors"

var (
	// ErrMisalignedRange возвращается, когда границы диапазона не выровнены
	// по границе слота (30 минут)
	ErrMisalignedRange = errors.New("allocator: range is not aligned to slot unit")

	// ErrInvalidRange возвращается, когда start >= end
	ErrInvalidRange = errors.New("allocator: start must be before end")

	// ErrInvalidSchedule возвращается при некорректных рабочих часах
	ErrInvalidSchedule = errors.New("allocator: invalid operating hours")
)
