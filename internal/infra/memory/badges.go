package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/savings-coach/internal/domain"
)

// BadgeRepository is an in-memory domain.BadgeRepository.
type BadgeRepository struct {
	mu         sync.RWMutex
	badges     map[string]*domain.Badge
	userBadges map[string]map[string]*domain.UserBadge // user ID -> badge ID
}

// NewBadgeRepository creates a repository seeded with the given badges.
func NewBadgeRepository(badges ...domain.Badge) *BadgeRepository {
	r := &BadgeRepository{
		badges:     make(map[string]*domain.Badge),
		userBadges: make(map[string]map[string]*domain.UserBadge),
	}
	for i := range badges {
		b := badges[i]
		r.badges[b.ID] = &b
	}
	return r
}

// FindBadge implements domain.BadgeRepository.
func (r *BadgeRepository) FindBadge(ctx context.Context, badgeID string) (*domain.Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.badges[badgeID]
	if !exists {
		return nil, nil
	}
	bCopy := *b
	return &bCopy, nil
}

// FindUserBadge implements domain.BadgeRepository.
func (r *BadgeRepository) FindUserBadge(ctx context.Context, userID, badgeID string) (*domain.UserBadge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ub, exists := r.userBadges[userID][badgeID]
	if !exists {
		return nil, nil
	}
	ubCopy := *ub
	return &ubCopy, nil
}

// InsertUserBadge implements domain.BadgeRepository.
func (r *BadgeRepository) InsertUserBadge(ctx context.Context, ub *domain.UserBadge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.userBadges[ub.UserID]
	if held == nil {
		held = make(map[string]*domain.UserBadge)
		r.userBadges[ub.UserID] = held
	}
	if _, exists := held[ub.BadgeID]; exists {
		return fmt.Errorf("user %s already holds badge %s", ub.UserID, ub.BadgeID)
	}
	ubCopy := *ub
	held[ub.BadgeID] = &ubCopy
	return nil
}

// ListUserBadges implements domain.BadgeRepository.
func (r *BadgeRepository) ListUserBadges(ctx context.Context, userID string) ([]*domain.UserBadge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.UserBadge
	for badgeID, ub := range r.userBadges[userID] {
		b, exists := r.badges[badgeID]
		if !exists || b.State != domain.BadgeStateActive {
			continue
		}
		ubCopy := *ub
		result = append(result, &ubCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AwardedAt.Equal(result[j].AwardedAt) {
			return result[i].AwardedAt.Before(result[j].AwardedAt)
		}
		return result[i].BadgeID < result[j].BadgeID
	})
	return result, nil
}

// DeleteUserBadges implements domain.BadgeRepository.
func (r *BadgeRepository) DeleteUserBadges(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.userBadges[userID])
	delete(r.userBadges, userID)
	return n, nil
}

var _ domain.BadgeRepository = (*BadgeRepository)(nil)
