package runtime

// ResultOk and ResultErr are the two variants of spec.md §3.5's
// Result(V)/ResultOk(V)/ResultErr(V), produced by the "ok"/"err" builtins and
// consumed by the `?` operator.
type ResultOk struct{ Value Value }
type ResultErr struct{ Value Value }

func (r ResultOk) String() string  { return "ok(" + r.Value.String() + ")" }
func (r ResultOk) Kind() string    { return "result" }
func (r ResultOk) Truth() bool     { return true }
func (r ResultErr) String() string { return "err(" + r.Value.String() + ")" }
func (r ResultErr) Kind() string   { return "result" }
func (r ResultErr) Truth() bool    { return true }
