package automation

import "errors"

var (
	// ErrConfigNotFound возвращается, когда конфигурация автоматизации не найдена
	ErrConfigNotFound = errors.New("automation.repository: config not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("automation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("automation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("automation.repository: failed to scan row")
)
