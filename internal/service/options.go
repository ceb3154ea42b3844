package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Option func(*NotifyService)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *NotifyService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone in which "today" is computed.
func WithLocation(loc *time.Location) Option {
	return func(s *NotifyService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithKeyGenerator(gen func() (uuid.UUID, error)) Option {
	return func(s *NotifyService) {
		if gen != nil {
			s.newKey = gen
		}
	}
}

func WithHistoryCache(cache HistoryCache) Option {
	return func(s *NotifyService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func (s *NotifyService) validate() error {
	if s.repo == nil {
		return errors.New("invalid notify repository: must be non-nil")
	}
	if s.subs == nil {
		return errors.New("invalid subscription finder: must be non-nil")
	}
	if s.settings == nil {
		return errors.New("invalid settings reader: must be non-nil")
	}
	if s.sender == nil {
		return errors.New("invalid sender: must be non-nil")
	}
	if s.log == nil {
		return errors.New("invalid logger: must be non-nil")
	}
	return nil
}
