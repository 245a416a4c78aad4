package memory

import (
	"context"
	"time"

	"weekly-challenge/internal/domain"
)

// Schedule maps week starts to challenge ids.
type Schedule struct {
	weeks map[string]string
}

// NewSchedule indexes challenges by the Monday of their WeekStart (UTC).
func NewSchedule(challenges ...domain.Challenge) *Schedule {
	s := &Schedule{weeks: make(map[string]string)}
	for _, c := range challenges {
		s.weeks[weekKey(c.WeekStart)] = c.ID
	}
	return s
}

func (s *Schedule) ActiveChallenge(_ context.Context, at time.Time) (string, error) {
	if id, ok := s.weeks[weekKey(at)]; ok {
		return id, nil
	}
	return "", domain.ErrNoActiveChallenge
}

func weekKey(t time.Time) string {
	return domain.WeekStart(t.UTC()).Format("2006-01-02")
}
