package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/replenish/internal/repository"
)

// buildPolicyFilterClause constructs SQL filter clauses for policy queries.
// Placeholders start at startIndex.
func buildPolicyFilterClause(filter *repository.PolicyFilter, alias string, startIndex int) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	alias = normalizeAlias(alias)
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	in := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = fmt.Sprintf("$%d", idx)
			args = append(args, v)
			idx++
		}
		clauses = append(clauses, fmt.Sprintf("%s%s IN (%s)", alias, column, strings.Join(placeholders, ",")))
	}

	classes := make([]string, len(filter.Classes))
	for i, c := range filter.Classes {
		classes[i] = string(c)
	}
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}

	in("abc_class", classes)
	in("status", statuses)
	in("store_id", filter.StoreIDs)
	in("sku_id", filter.SKUIDs)

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
