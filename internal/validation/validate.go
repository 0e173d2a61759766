package validation

import (
	"fmt"
	"time"
)

const (
	// MaxNameLen максимальная длина названия блюда
	MaxNameLen = 200
	// DateLayout формат дат плана питания
	DateLayout = "2006-01-02"
)

// Meals допустимые приемы пищи в позиции плана
var Meals = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// ValidateDishName проверяет название блюда
// Непустое, не длиннее MaxNameLen символов
func ValidateDishName(name string) error {
	if name == "" {
		return fmt.Errorf("dish name cannot be empty")
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("dish name must not exceed %d characters", MaxNameLen)
	}

	return nil
}

// ValidateHouseholdID проверяет идентификатор домохозяйства
func ValidateHouseholdID(id string) error {
	if id == "" {
		return fmt.Errorf("household id cannot be empty")
	}
	return nil
}

// ValidateDate проверяет, что дата задана в формате YYYY-MM-DD
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date cannot be empty")
	}

	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format: %w", err)
	}

	return nil
}

// ValidateMeal проверяет название приема пищи
func ValidateMeal(meal string) error {
	if !Meals[meal] {
		return fmt.Errorf("meal must be one of: breakfast, lunch, dinner, snack")
	}
	return nil
}
