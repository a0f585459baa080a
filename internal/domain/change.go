package domain

// RelativeChange returns (next - current) / current. It is Missing when next
// is Missing or current is zero.
func RelativeChange(current int64, next Value) Value {
	cur := Present(float64(current))
	return Ratio(Sub(next, cur), cur)
}

// Change is the relative change from the latest observed year to the
// forecast year.
func (r ForecastResult) Change() Value {
	return RelativeChange(r.Current, r.Next)
}
