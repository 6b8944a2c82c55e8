package get_free_intervals

import "time"

// Request модель запроса свободных интервалов корта на день
type Request struct {
	ClubID  int64     // ID клуба
	CourtID int64     // ID корта
	Date    time.Time // День (время игнорируется)
}

// Interval свободный промежуток
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Response модель ответа со свободными интервалами
type Response struct {
	ClubID    int64      `json:"clubId"`
	CourtID   int64      `json:"courtId"`
	Date      time.Time  `json:"date"`
	IsOpen    bool       `json:"isOpen"`
	Intervals []Interval `json:"intervals"`
}
