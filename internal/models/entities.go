package models

// Dish представляет блюдо — минимальная форма, достаточная для
// сравнения при конфликтах. Полная бизнес-схема живет на сервере.
type Dish struct {
	ID          string   `json:"id"`           // ID уникальный идентификатор (UUID)
	HouseholdID string   `json:"household_id"` // HouseholdID домохозяйство-владелец
	Name        string   `json:"name"`         // Name название блюда
	Description string   `json:"description"`  // Description описание
	Tags        []string `json:"tags"`         // Tags теги для поиска
}

// MealPlanEntry одна позиция плана: блюдо на прием пищи в конкретный день
type MealPlanEntry struct {
	Date   string `json:"date"`    // Date дата в формате YYYY-MM-DD
	Meal   string `json:"meal"`    // Meal прием пищи: breakfast, lunch, dinner, snack
	DishID string `json:"dish_id"` // DishID ссылка на блюдо
}

// MealPlan представляет недельный план питания — общий изменяемый ресурс.
// Одновременное редактирование сериализуется протоколом блокировки
// (поля LockedBy/LockedAt на CacheRecord).
type MealPlan struct {
	ID          string          `json:"id"`           // ID уникальный идентификатор (UUID)
	HouseholdID string          `json:"household_id"` // HouseholdID домохозяйство-владелец
	WeekStart   string          `json:"week_start"`   // WeekStart понедельник недели в формате YYYY-MM-DD
	Entries     []MealPlanEntry `json:"entries"`      // Entries позиции плана
}
