package tree

// Args holds decoded argument values by position.
type Args struct {
	values []any
}

// NewArgs wraps decoded values.
func NewArgs(values ...any) Args {
	return Args{values: values}
}

// Len returns the number of values.
func (a Args) Len() int {
	return len(a.values)
}

// Value returns the i-th value.
func (a Args) Value(i int) any {
	return a.values[i]
}

// Values returns a copy of all values.
func (a Args) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

// Int returns the i-th value as an int, or 0 if it is not one.
func (a Args) Int(i int) int {
	v, _ := a.values[i].(int)
	return v
}

// Float returns the i-th value as a float64, or 0 if it is not one.
func (a Args) Float(i int) float64 {
	v, _ := a.values[i].(float64)
	return v
}

// String returns the i-th value as a string, or "" if it is not one.
func (a Args) String(i int) string {
	v, _ := a.values[i].(string)
	return v
}

// Bool returns the i-th value as a bool, or false if it is not one.
func (a Args) Bool(i int) bool {
	v, _ := a.values[i].(bool)
	return v
}
