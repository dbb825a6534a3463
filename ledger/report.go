package ledger

import (
	"fmt"
	"math"

	"github.com/Dosada05/academy-system/models"
)

// BuildReport агрегирует оплаты активных игроков за месяц.
// Неактивные игроки не учитываются ни в числителе, ни в знаменателе.
func BuildReport(month string, players []models.Player) models.SubscriptionReport {
	report := models.SubscriptionReport{
		Month:      month,
		MonthLabel: MonthName(month),
	}

	for i := range players {
		p := &players[i]
		if !p.IsActive {
			continue
		}
		status := StatusForMonth(p, month)
		report.TotalAmount += status.Amount
		if status.Paid {
			report.PaidCount++
			report.PaidAmount += status.Amount
		} else {
			report.UnpaidCount++
		}
	}
	report.UnpaidAmount = report.TotalAmount - report.PaidAmount

	report.CollectionPercent = CollectionPercent(report.PaidAmount, report.TotalAmount)
	report.CollectionDisplay = FormatPercent(report.CollectionPercent)
	return report
}

// CollectionPercent возвращает nil, если общая сумма нулевая.
func CollectionPercent(paid, total float64) *float64 {
	if total <= 0 {
		return nil
	}
	pct := paid / total * 100
	return &pct
}

func FormatPercent(pct *float64) string {
	if pct == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*pct)))
}
