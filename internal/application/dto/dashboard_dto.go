package dto

import "github.com/shopspring/decimal"

// RankingEntry vendedor y cantidad de OCs en un ranking.
type RankingEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PerformanceSummary resumen mensual del panel de desempeño.
//
// MonthOrders cuenta las OCs con entrega en el mes; CompletedInMonth las concluidas de
// ese subconjunto; ActiveOrders las pendientes o en producción de todo el tablero.
type PerformanceSummary struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	MonthOrders      int             `json:"month_orders"`
	CompletedInMonth int             `json:"completed_in_month"`
	ActiveOrders     int             `json:"active_orders"`
	CompletionRate   decimal.Decimal `json:"completion_rate"` // porcentaje, 2 decimales
	UrgencyRanking   []RankingEntry  `json:"urgency_ranking"`
	VolumeRanking    []RankingEntry  `json:"volume_ranking"` // top 5
	MaxVolume        int             `json:"max_volume"`
}
