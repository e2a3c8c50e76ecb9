package production

import (
	"time"

	"github.com/jhoicas/crs-vision/internal/domain/entity"
)

// WorkDays días hábiles del cronograma (lunes a viernes).
const WorkDays = 5

// DaySchedule OCs con entrega en un día del cronograma.
type DaySchedule struct {
	Day    time.Time      `json:"day"`
	Orders []entity.Order `json:"orders"`
}

// WeekStart devuelve el lunes 00:00 de la semana de t, en la zona de t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // lunes = 0
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WorkWeek devuelve los cinco días hábiles que empiezan en start.
func WorkWeek(start time.Time) []time.Time {
	days := make([]time.Time, WorkDays)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// OrdersForDay filtra las OCs cuya entrega cae en day. Se compara la fecha calendario
// como texto (YYYY-MM-DD) para que la zona horaria no corra el día.
func OrdersForDay(orders []entity.Order, day time.Time) []entity.Order {
	key := day.Format(entity.DateLayout)
	var out []entity.Order
	for _, o := range orders {
		if dueKey(o) == key {
			out = append(out, o)
		}
	}
	return out
}

// Week arma el cronograma de la semana que contiene ref, desplazada weekOffset semanas.
func Week(orders []entity.Order, ref time.Time, weekOffset int) []DaySchedule {
	start := WeekStart(ref).AddDate(0, 0, 7*weekOffset)
	days := WorkWeek(start)
	out := make([]DaySchedule, 0, len(days))
	for _, d := range days {
		out = append(out, DaySchedule{Day: d, Orders: OrdersForDay(orders, d)})
	}
	return out
}
