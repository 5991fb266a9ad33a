package mtp

import "fmt"

// fetchCounted runs a two-phase counted query: it asks fetch for the element
// count, allocates, fetches again and verifies the device still reports the
// same count.
func fetchCounted[T any](op string, fetch func(dst []T) (int, error)) ([]T, error) {
	want, err := fetch(nil)
	if err != nil {
		return nil, transportError(op, "", err)
	}
	if want <= 0 {
		return nil, nil
	}

	buf := make([]T, want)
	got, err := fetch(buf)
	if err != nil {
		return nil, transportError(op, "", err)
	}
	if got != want {
		return nil, &Error{
			Code:   CodeChangedConditions,
			Op:     op,
			Detail: fmt.Sprintf("promised %d elements, got %d", want, got),
		}
	}
	return buf, nil
}
