package domain

import "time"

// AutomationConfig настройки автоматизации статусов для клуба (тенанта)
type AutomationConfig struct {
	ID     int64
	ClubID int64

	// AutoConfirmEnabled включает переход scheduled → confirmed
	// за AutoConfirmLeadMinutes минут до начала
	AutoConfirmEnabled     bool
	AutoConfirmLeadMinutes int

	// AutoStartEnabled включает переход в in_progress при достижении начала
	AutoStartEnabled bool

	// AutoFinishEnabled включает переход в finished при достижении конца
	AutoFinishEnabled bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultAutomationConfig возвращает конфигурацию по умолчанию для клуба,
// у которого нет сохранённой записи
func DefaultAutomationConfig(clubID int64) *AutomationConfig {
	return &AutomationConfig{
		ClubID:                 clubID,
		AutoConfirmEnabled:     true,
		AutoConfirmLeadMinutes: DefaultAutoConfirmLeadMinutes,
		AutoStartEnabled:       true,
		AutoFinishEnabled:      true,
	}
}

// ConfirmThreshold возвращает момент, начиная с которого бронирование
// может быть автоматически подтверждено
func (c *AutomationConfig) ConfirmThreshold(startsAt time.Time) time.Time {
	return startsAt.Add(-time.Duration(c.AutoConfirmLeadMinutes) * time.Minute)
}
