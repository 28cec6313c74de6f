// Package segmentation compiles dynamic segment rules into SQL predicates over the donators table.
package segmentation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Field string

const (
	FieldTotalDonations    Field = "totalDonations"
	FieldDonationCount     Field = "donationCount"
	FieldLastDonationDate  Field = "lastDonationDate"
	FieldFirstDonationDate Field = "firstDonationDate"
	FieldSegment           Field = "segment"
	FieldScore             Field = "score"
	FieldCountry           Field = "country"
	FieldPreferredLanguage Field = "preferredLanguage"
	FieldUnsubscribedAt    Field = "unsubscribedAt"
)

type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpBefore     Operator = "before"
	OpAfter      Operator = "after"
	OpWithinDays Operator = "within_days"
)

type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

type Condition struct {
	ID       string   `json:"id"`
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

type RuleGroup struct {
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// Rules is the document stored in audiences.rules.
type Rules struct {
	Group *RuleGroup `json:"group"`
}

// Parse decodes stored rules. A nil or empty document yields nil rules.
func Parse(raw json.RawMessage) (*Rules, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var r Rules
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("invalid segment rules: %w", err)
	}
	return &r, nil
}

// Predicate is a WHERE clause body with its positional arguments.
type Predicate struct {
	SQL  string
	Args []any
}

var numericColumns = map[Field]string{
	FieldTotalDonations: "total_donations",
	FieldDonationCount:  "donation_count",
	FieldScore:          "score",
}

var comparison = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Compile builds the predicate selecting the organization's donators matching group.
// Invalid conditions are skipped; a group without a valid condition matches every
// donator of the organization. Placeholders start at $1.
func Compile(group RuleGroup, organizationID string, now time.Time) Predicate {
	b := &builder{}
	orgClause := "organization_id = " + b.arg(organizationID)

	var clauses []string
	for _, c := range group.Conditions {
		if clause, ok := b.condition(c, now); ok {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return Predicate{SQL: orgClause, Args: b.args}
	}

	// Only an explicit AND conjoins; any other logic value is a disjunction.
	joiner := " OR "
	if group.Logic == LogicAnd {
		joiner = " AND "
	}
	return Predicate{
		SQL:  orgClause + " AND (" + strings.Join(clauses, joiner) + ")",
		Args: b.args,
	}
}

type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) condition(c Condition, now time.Time) (string, bool) {
	if col, ok := numericColumns[c.Field]; ok {
		num, ok := toNumber(c.Value)
		if !ok {
			return "", false
		}
		op, ok := comparison[c.Operator]
		if !ok {
			return "", false
		}
		return col + " " + op + " " + b.arg(num), true
	}

	switch c.Field {
	case FieldLastDonationDate:
		if c.Operator == OpWithinDays {
			days, ok := toNumber(c.Value)
			if !ok || days < 0 {
				return "", false
			}
			since := now.AddDate(0, 0, -int(days))
			return "last_donation_date >= " + b.arg(since), true
		}
		return b.dateCondition("last_donation_date", c)
	case FieldFirstDonationDate:
		return b.dateCondition("first_donation_date", c)
	case FieldSegment:
		return b.stringCondition("segment", c, true)
	case FieldCountry:
		return b.stringCondition("country", c, true)
	case FieldPreferredLanguage:
		return b.stringCondition("preferred_language", c, false)
	case FieldUnsubscribedAt:
		unsubscribed := c.Value == true || c.Value == "true"
		switch c.Operator {
		case OpEq:
			if unsubscribed {
				return "unsubscribed_at IS NOT NULL", true
			}
			return "unsubscribed_at IS NULL", true
		case OpNe:
			if unsubscribed {
				return "unsubscribed_at IS NULL", true
			}
			return "unsubscribed_at IS NOT NULL", true
		}
	}
	return "", false
}

func (b *builder) dateCondition(col string, c Condition) (string, bool) {
	s, ok := c.Value.(string)
	if !ok {
		return "", false
	}
	date, ok := parseDate(s)
	if !ok {
		return "", false
	}
	switch c.Operator {
	case OpBefore:
		return col + " < " + b.arg(date), true
	case OpAfter:
		return col + " > " + b.arg(date), true
	}
	return "", false
}

func (b *builder) stringCondition(col string, c Condition, allowContains bool) (string, bool) {
	v := toString(c.Value)
	switch c.Operator {
	case OpEq:
		return col + " = " + b.arg(v), true
	case OpNe:
		return col + " IS DISTINCT FROM " + b.arg(v), true
	case OpContains:
		if !allowContains {
			return "", false
		}
		return col + " ILIKE " + b.arg("%"+escapeLike(v)+"%"), true
	}
	return "", false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
