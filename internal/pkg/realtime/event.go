package realtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

func (t EventType) Valid() bool {
	switch t {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return true
	}
	return false
}

// Row 一行数据，列名 -> 值
type Row map[string]any

// String 以字符串形式读取列值，Canal 推送的列值本身就是字符串
func (r Row) String(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ChangeEvent 一次行级变更
type ChangeEvent struct {
	Table    string    `json:"table"`
	Type     EventType `json:"eventType"`
	New      Row       `json:"new,omitempty"`
	Old      Row       `json:"old,omitempty"`
	CommitTs time.Time `json:"commitTs"`
}

// Record DELETE 取旧行，其他取新行
func (e ChangeEvent) Record() Row {
	if e.Type == EventDelete {
		return e.Old
	}
	return e.New
}

var ErrInvalidFilter = errors.New("invalid row filter")

// RowFilter 形如 column=eq.value / column=neq.value / column=in.(a,b)
type RowFilter struct {
	Column string
	Op     string
	Values []string
}

func ParseRowFilter(s string) (*RowFilter, error) {
	if s == "" {
		return nil, nil
	}
	col, expr, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	op, val, ok := strings.Cut(expr, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}

	f := &RowFilter{Column: col, Op: op}
	switch op {
	case "eq", "neq":
		f.Values = []string{val}
	case "in":
		if !strings.HasPrefix(val, "(") || !strings.HasSuffix(val, ")") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
		}
		for _, v := range strings.Split(val[1:len(val)-1], ",") {
			if v = strings.TrimSpace(v); v != "" {
				f.Values = append(f.Values, v)
			}
		}
		if len(f.Values) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
		}
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, op)
	}
	return f, nil
}

func (f *RowFilter) Match(row Row) bool {
	if f == nil {
		return true
	}
	if row == nil {
		return false
	}
	v := row.String(f.Column)
	switch f.Op {
	case "eq":
		return v == f.Values[0]
	case "neq":
		return v != f.Values[0]
	case "in":
		for _, candidate := range f.Values {
			if v == candidate {
				return true
			}
		}
	}
	return false
}

func (f *RowFilter) String() string {
	if f == nil {
		return ""
	}
	if f.Op == "in" {
		return f.Column + "=in.(" + strings.Join(f.Values, ",") + ")"
	}
	return f.Column + "=" + f.Op + "." + f.Values[0]
}
