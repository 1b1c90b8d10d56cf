package postgres

import (
	"fmt"
	"strings"

	"SubletHubPlatform/internal/domain"
)

// listingWhere строит условие WHERE для поиска объявлений.
// Пересечение интервалов: start_date <= constraint.end AND end_date >= constraint.start,
// каждая граница применяется независимо.
func listingWhere(filter domain.ListingFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(condition string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.EndDate != nil {
		add("start_date <= $%d", *filter.EndDate)
	}
	if filter.StartDate != nil {
		add("end_date >= $%d", *filter.StartDate)
	}
	if filter.MinPrice != nil {
		add("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		add("price <= $%d", *filter.MaxPrice)
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		add(`location ILIKE $%d ESCAPE '\'`, "%"+escapeLike(location)+"%")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// escapeLike экранирует служебные символы шаблона LIKE
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
