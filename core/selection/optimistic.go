package selection

// optimistic applies the tentative state before the commit runs, and puts
// the prior state back if the commit fails. Callers therefore observe either
// the fully committed outcome or exactly what they started with.
func optimistic(apply func([]string), prior, next []string, commit func() error) error {
	apply(next)

	if err := commit(); err != nil {
		apply(prior)
		return err
	}
	return nil
}
