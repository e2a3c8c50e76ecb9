package production

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/crs-vision/internal/application/dto"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// VolumeRankingSize cantidad de vendedores del ranking de volumen.
const VolumeRankingSize = 5

var hundred = decimal.NewFromInt(100)

// MonthlySummary calcula el panel de desempeño del mes de now (zona de now).
// El mes de una OC es el de su fecha de entrega.
func MonthlySummary(orders []entity.Order, now time.Time) dto.PerformanceSummary {
	month := now.Format("2006-01")
	summary := dto.PerformanceSummary{Year: now.Year(), Month: int(now.Month())}

	urgency := map[string]int{}
	volume := map[string]int{}
	for _, o := range orders {
		if o.Status == entity.StatusPending || o.Status == entity.StatusInProgress {
			summary.ActiveOrders++
		}
		key := dueKey(o)
		if len(key) < len(month) || key[:len(month)] != month {
			continue
		}
		summary.MonthOrders++
		if o.Status == entity.StatusCompleted {
			summary.CompletedInMonth++
		}
		if o.Salesperson == "" {
			continue
		}
		volume[o.Salesperson]++
		if o.Priority == entity.PriorityUrgent {
			urgency[o.Salesperson]++
		}
	}

	summary.CompletionRate = decimal.Zero
	if summary.MonthOrders > 0 {
		summary.CompletionRate = decimal.NewFromInt(int64(summary.CompletedInMonth)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(summary.MonthOrders))).
			Round(2)
	}
	summary.UrgencyRanking = ranking(urgency, 0)
	summary.VolumeRanking = ranking(volume, VolumeRankingSize)
	summary.MaxVolume = 1
	if len(summary.VolumeRanking) > 0 {
		summary.MaxVolume = summary.VolumeRanking[0].Count
	}
	return summary
}

// ranking ordena por cantidad descendente y nombre; limit 0 = sin límite.
func ranking(counts map[string]int, limit int) []dto.RankingEntry {
	out := make([]dto.RankingEntry, 0, len(counts))
	for name, n := range counts {
		out = append(out, dto.RankingEntry{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
