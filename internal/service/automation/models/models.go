package models

import (
	"time"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// UpdateConfigRequest запрос на обновление конфигурации автоматизации клуба.
// Незаполненные поля остаются без изменений.
type UpdateConfigRequest struct {
	UserID                 int64 `json:"userId"`
	ClubID                 int64 `json:"clubId"`
	AutoConfirmEnabled     *bool `json:"autoConfirmEnabled,omitempty"`
	AutoConfirmLeadMinutes *int  `json:"autoConfirmLeadMinutes,omitempty"`
	AutoStartEnabled       *bool `json:"autoStartEnabled,omitempty"`
	AutoFinishEnabled      *bool `json:"autoFinishEnabled,omitempty"`
}

// ConfigResponse конфигурация автоматизации в ответе API
type ConfigResponse struct {
	ClubID                 int64     `json:"clubId"`
	AutoConfirmEnabled     bool      `json:"autoConfirmEnabled"`
	AutoConfirmLeadMinutes int       `json:"autoConfirmLeadMinutes"`
	AutoStartEnabled       bool      `json:"autoStartEnabled"`
	AutoFinishEnabled      bool      `json:"autoFinishEnabled"`
	IsDefault              bool      `json:"isDefault,omitempty"`
	UpdatedAt              time.Time `json:"updatedAt,omitempty"`
}

// FromDomainConfig конвертирует domain конфигурацию в response модель
func FromDomainConfig(config *domain.AutomationConfig, isDefault bool) *ConfigResponse {
	return &ConfigResponse{
		ClubID:                 config.ClubID,
		AutoConfirmEnabled:     config.AutoConfirmEnabled,
		AutoConfirmLeadMinutes: config.AutoConfirmLeadMinutes,
		AutoStartEnabled:       config.AutoStartEnabled,
		AutoFinishEnabled:      config.AutoFinishEnabled,
		IsDefault:              isDefault,
		UpdatedAt:              config.UpdatedAt,
	}
}
