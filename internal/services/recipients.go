package services

import (
	"context"
	"fmt"

	"eventreminders/internal/domain"
)

type broadcastResolver struct {
	userRepo domain.UserRepository
}

// NewBroadcastResolver returns the broadcast recipient policy: every
// registered user with a non-empty email is reminded about every event,
// regardless of who owns it. This is a deliberate policy choice, not a
// default; an owner-scoped resolver can replace it at wiring time.
func NewBroadcastResolver(userRepo domain.UserRepository) domain.RecipientResolver {
	return &broadcastResolver{userRepo: userRepo}
}

// Resolve queries the user directory fresh on every call so recipients who
// joined or left since the previous dispatch tick are picked up.
func (r *broadcastResolver) Resolve(ctx context.Context, _ *domain.Event) ([]domain.Recipient, error) {
	users, err := r.userRepo.ListWithEmail(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	recipients := make([]domain.Recipient, 0, len(users))
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		recipients = append(recipients, domain.Recipient{
			UserID: u.ID,
			Email:  u.Email,
			Name:   u.Name,
		})
	}
	return recipients, nil
}
