package clubservice

// Club модель клуба из ClubService
type Club struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Timezone     string       `json:"timezone"`
	Courts       []Court      `json:"courts"`
	ManagerIDs   []int64      `json:"manager_ids"`
	WorkingHours WeekSchedule `json:"working_hours"`
}

// Court модель корта клуба
type Court struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Modality string `json:"modality"` // padel, tennis, ...
	IsActive bool   `json:"is_active"`
}

// WeekSchedule расписание работы клуба по дням недели
type WeekSchedule struct {
	Monday    DaySchedule `json:"monday"`
	Tuesday   DaySchedule `json:"tuesday"`
	Wednesday DaySchedule `json:"wednesday"`
	Thursday  DaySchedule `json:"thursday"`
	Friday    DaySchedule `json:"friday"`
	Saturday  DaySchedule `json:"saturday"`
	Sunday    DaySchedule `json:"sunday"`
}

// DaySchedule расписание работы на один день недели.
// CloseTime = "00:00" означает конец суток (24:00), не начало.
type DaySchedule struct {
	IsOpen    bool    `json:"is_open"`
	OpenTime  *string `json:"open_time,omitempty"`  // "HH:MM"
	CloseTime *string `json:"close_time,omitempty"` // "HH:MM"
}

// ErrorResponse модель ошибки от ClubService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FindCourt возвращает корт клуба по ID
func (c *Club) FindCourt(courtID int64) (*Court, bool) {
	for i := range c.Courts {
		if c.Courts[i].ID == courtID {
			return &c.Courts[i], true
		}
	}
	return nil, false
}

// IsManager возвращает true, если пользователь является менеджером клуба
func (c *Club) IsManager(userID int64) bool {
	for _, id := range c.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
