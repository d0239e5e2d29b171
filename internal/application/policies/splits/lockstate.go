package splits

import "time"

// LockState is the publishing/master lock tuple persisted on a song. Transitions return the
// complete next state so every cascade happens in one place.
type LockState struct {
	PublishingLocked   bool
	PublishingLockedAt *time.Time
	MasterLocked       bool
	MasterLockedAt     *time.Time
}

// Consistent reports whether the invariant masterLocked ⇒ publishingLocked holds.
func (s LockState) Consistent() bool {
	return !s.MasterLocked || s.PublishingLocked
}

// CanEditPublishing returns nil when publishing splits may be saved.
func (s LockState) CanEditPublishing() error {
	if s.PublishingLocked {
		return ErrPublishingLocked
	}
	return nil
}

// CanEditMaster returns nil when master splits may be saved.
func (s LockState) CanEditMaster() error {
	if !s.PublishingLocked {
		return ErrPublishingNotLocked
	}
	if s.MasterLocked {
		return ErrMasterLocked
	}
	return nil
}

// LockPublishing moves publishing UNLOCKED -> LOCKED. Ledger validation happens before this.
func (s LockState) LockPublishing(now time.Time) (LockState, error) {
	if s.PublishingLocked {
		return s, ErrPublishingAlreadyLocked
	}
	next := s
	next.PublishingLocked = true
	next.PublishingLockedAt = &now
	return next, nil
}

// UnlockPublishing is unconditional and always clears the master lock as well.
func (s LockState) UnlockPublishing() LockState {
	return LockState{}
}

// LockMaster moves master UNLOCKED -> LOCKED; publishing must already be locked.
func (s LockState) LockMaster(now time.Time) (LockState, error) {
	if err := s.CanEditMaster(); err != nil {
		if err == ErrMasterLocked {
			return s, ErrMasterAlreadyLocked
		}
		return s, err
	}
	next := s
	next.MasterLocked = true
	next.MasterLockedAt = &now
	return next, nil
}

// UnlockMaster is unconditional and leaves publishing untouched.
func (s LockState) UnlockMaster() LockState {
	next := s
	next.MasterLocked = false
	next.MasterLockedAt = nil
	return next
}
