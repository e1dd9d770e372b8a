package timing

import "time"

// Calibrate fills the reserved overhead slot with capacity samples, each
// bracketing a single clock read. The resulting distribution characterizes
// the cost of the clock read plus recording bookkeeping, which is the noise
// floor of every other measurement taken through this registry.
//
// Calibrate may be re-run at any time before Close; it discards the
// previous baseline.
func (r *Registry) Calibrate() error {
	if r.closed {
		return ErrClosed
	}
	s := &r.slots[OverheadSlot]
	s.cursor = 0
	s.armed = false
	for i := 0; i < r.capacity; i++ {
		if err := s.begin(); err != nil {
			return err
		}
		_ = time.Now()
		if err := s.end(); err != nil {
			return err
		}
	}
	return nil
}
