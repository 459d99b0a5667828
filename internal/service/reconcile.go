package service

import (
	"context"
	"time"

	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
)

// StreakGap is a verified proof whose day never reached the goal's streak.
// Streak is nil when the goal has no streak row at all.
type StreakGap struct {
	Proof    *model.Proof  `json:"proof"`
	ProofDay model.Date    `json:"proof_day"`
	Streak   *model.Streak `json:"streak,omitempty"`
}

// ReconcileService finds proofs left behind when a streak update failed after
// the proof was written.
type ReconcileService struct {
	proofRepo  repository.ProofRepository
	streakRepo repository.StreakRepository
	location   *time.Location
}

func NewReconcileService(proofRepo repository.ProofRepository, streakRepo repository.StreakRepository, location *time.Location) *ReconcileService {
	if location == nil {
		location = time.UTC
	}
	return &ReconcileService{
		proofRepo:  proofRepo,
		streakRepo: streakRepo,
		location:   location,
	}
}

// Gaps compares each goal's latest verified proof with its streak's last_proof_date.
func (s *ReconcileService) Gaps(ctx context.Context) ([]StreakGap, error) {
	proofs, err := s.proofRepo.LatestVerified(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(proofs))
	for _, p := range proofs {
		ids = append(ids, p.GoalID)
	}

	streaks, err := s.streakRepo.ByGoalIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byGoal := make(map[string]*model.Streak, len(streaks))
	for _, st := range streaks {
		byGoal[st.GoalID] = st
	}

	gaps := []StreakGap{}
	for _, p := range proofs {
		proofDay := model.DateOf(p.CreatedAt.In(s.location))
		st := byGoal[p.GoalID]
		if st != nil && st.LastProofDate != nil && !st.LastProofDate.Before(proofDay) {
			continue
		}
		gaps = append(gaps, StreakGap{Proof: p, ProofDay: proofDay, Streak: st})
	}

	return gaps, nil
}
