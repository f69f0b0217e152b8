package attach

// Compose merges several element-binding setters into one callback, so a
// consumer and the internal machinery can both observe the same element.
// Nil setters are skipped. Setters run in argument order.
func Compose[E any](fns ...func(E)) func(E) {
	return func(elem E) {
		for _, fn := range fns {
			if fn != nil {
				fn(elem)
			}
		}
	}
}
