package storage

// ErrNotFound is returned when a run doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "run not found"
	}

	return "run not found: " + e.ID
}
