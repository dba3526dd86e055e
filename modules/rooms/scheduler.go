package rooms

// ReclaimScheduler receives room ids whose expiry has been observed so their
// records can be removed out of band. Schedule must not block.
type ReclaimScheduler interface {
	Schedule(roomID string)
}

// NoopScheduler discards scheduled ids.
type NoopScheduler struct{}

// Schedule implements ReclaimScheduler.
func (NoopScheduler) Schedule(string) {}
