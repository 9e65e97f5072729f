package planner

import (
	"time"

	"github.com/fekuna/omnipos-replenishment-service/internal/model"
)

// SeasonalityMultiplier returns the multiplier of the calendar period that
// contains date, or 1.0. When periods overlap the narrowest one wins, then
// the one starting latest, then the highest id.
func SeasonalityMultiplier(periods []model.SeasonalityPeriod, date time.Time) float64 {
	day := DateOf(date)

	var best *model.SeasonalityPeriod
	for i := range periods {
		p := &periods[i]
		start, end := DateOf(p.StartDate), DateOf(p.EndDate)
		if day.Before(start) || day.After(end) {
			continue
		}
		if best == nil || narrower(p, best) {
			best = p
		}
	}

	if best == nil {
		return 1.0
	}
	return best.Multiplier
}

func narrower(a, b *model.SeasonalityPeriod) bool {
	wa := DateOf(a.EndDate).Sub(DateOf(a.StartDate))
	wb := DateOf(b.EndDate).Sub(DateOf(b.StartDate))
	if wa != wb {
		return wa < wb
	}
	sa, sb := DateOf(a.StartDate), DateOf(b.StartDate)
	if !sa.Equal(sb) {
		return sa.After(sb)
	}
	return a.ID > b.ID
}
