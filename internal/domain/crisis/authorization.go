package crisis

// Authorize allows only the recorded author to mutate an update.
func Authorize(rec *Update, caller string) error {
	if rec == nil || caller != rec.Author {
		return ErrNotAuthor
	}
	return nil
}
