package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/models"
)

const monthLayout = "2006-01"

var arabicMonthNames = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

// MonthKey форматирует время как ключ месяца YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// IsMonthKey сообщает, имеет ли строка вид YYYY-MM.
func IsMonthKey(s string) bool {
	_, err := time.Parse(monthLayout, s)
	return err == nil && len(s) == len(monthLayout)
}

// MonthName возвращает подпись месяца по-арабски, например "مارس 2025".
// Для некорректного ключа возвращается сам ключ.
func MonthName(month string) string {
	year, mm, ok := strings.Cut(month, "-")
	if !ok {
		return month
	}
	n, err := strconv.Atoi(mm)
	if err != nil || n < 1 || n > 12 {
		return month
	}
	return fmt.Sprintf("%s %s", arabicMonthNames[n-1], year)
}

// AvailableMonths - три месяца назад, текущий и два вперёд.
func AvailableMonths(now time.Time) []models.MonthOption {
	current := MonthKey(now)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	months := make([]models.MonthOption, 0, 6)
	for i := -3; i <= 2; i++ {
		key := MonthKey(first.AddDate(0, i, 0))
		months = append(months, models.MonthOption{
			Month:     key,
			Label:     MonthName(key),
			IsCurrent: key == current,
		})
	}
	return months
}
