package database

import (
	"fmt"
	"strings"
)

// Where collects optional filter conditions with numbered placeholders.
type Where struct {
	conds []string
	args  []any
}

// Add appends a condition; each "?" in cond is replaced by the next placeholder.
func (w *Where) Add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

// SQL returns " WHERE ..." or "" when no condition was added.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the placeholder values in order.
func (w *Where) Args() []any {
	return w.args
}
