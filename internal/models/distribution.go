package models

import (
	"fmt"
	"time"
)

// Strategy — закрытое перечисление стратегий автоматического распределения
// лидов. Строковое представление хранится в БД, диспетчеризация в коде
// идёт через switch по типу, а не по строковым ключам.
type Strategy string

const (
	// StrategyRoundRobin распределяет лиды по кругу между одобренными артистами.
	StrategyRoundRobin Strategy = "round_robin"
	// StrategyCapacityBased отдаёт лид одобренному артисту с наибольшим балансом.
	StrategyCapacityBased Strategy = "capacity_based"
)

// ParseStrategy преобразует строку из БД или запроса в Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRoundRobin:
		return StrategyRoundRobin, nil
	case StrategyCapacityBased:
		return StrategyCapacityBased, nil
	default:
		return "", fmt.Errorf("unknown distribution strategy: %q", s)
	}
}

// DistributionRule — запись о стратегии распределения. Активной может быть
// не более одной стратегии; если активных нет, автоматическое назначение
// пропускается и лид остаётся в общем пуле.
type DistributionRule struct {
	Strategy    Strategy
	IsActive    bool
	Description string
	CreatedAt   time.Time
}

// DistributionState — единственная строка состояния round-robin.
// Указатель на последнего назначенного артиста читается и пишется
// под той же блокировкой, что и решение о назначении.
type DistributionState struct {
	LastArtistID    *int // Последний артист, получивший лид (nil — с начала списка)
	DefaultArtistID *int // Запасной артист, если подходящих нет
}

// DistributionRuleRequest используется админом для переключения стратегии.
type DistributionRuleRequest struct {
	Strategy string `json:"strategy" validate:"required,oneof=round_robin capacity_based"`
	IsActive bool   `json:"is_active"`
}
