package handlers

import (
	"context"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	mediasvc "github.com/divcode-web/Trueconnect-bot/internal/services/media"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/dto"
)

type PhotoResolver interface {
	Primary(ctx context.Context, profile model.Profile) (mediasvc.PhotoRef, error)
}

func toBrowseResponse(ctx context.Context, photos PhotoResolver, p browsingsvc.Presentation) dto.BrowseResponse {
	resp := dto.BrowseResponse{
		State:        string(p.State),
		CycleID:      p.CycleID,
		Position:     p.Position,
		Total:        p.Total,
		Interstitial: p.Interstitial,
	}
	if p.Candidate != nil {
		item := toCandidateResponse(ctx, photos, p.Candidate.Profile)
		item.DistanceKM = p.Candidate.DistanceKM
		item.Score = p.Candidate.Score
		resp.Candidate = &item
	}
	return resp
}

// toCandidateResponse never fails. A photo that cannot be resolved is left out.
func toCandidateResponse(ctx context.Context, photos PhotoResolver, profile model.Profile) dto.CandidateResponse {
	item := dto.CandidateResponse{
		UserID:      profile.UserID,
		DisplayName: profile.DisplayName,
		Age:         profile.Age,
		Gender:      string(profile.Gender),
		Interests:   profile.Interests,
		Education:   profile.Education,
		Profession:  profile.Profession,
		Bio:         profile.Bio,
		IsVerified:  profile.IsVerified,
	}
	if photos == nil {
		return item
	}
	if ref, err := photos.Primary(ctx, profile); err == nil {
		item.PhotoURL = ref.URL
		item.PhotoFileID = ref.FileID
	}
	return item
}

func quotaFromDecision(d quotasvc.Decision) dto.QuotaSnapshotResponse {
	return dto.QuotaSnapshotResponse{
		IsPremium: d.Premium,
		Used:      d.Used,
		Limit:     d.Limit,
		LikesLeft: d.Remaining,
		ResetAt:   d.ResetAt,
	}
}

func quotaFromSnapshot(s quotasvc.Snapshot) dto.QuotaSnapshotResponse {
	return dto.QuotaSnapshotResponse{
		IsPremium: s.Premium,
		Used:      s.Used,
		Limit:     s.Limit,
		LikesLeft: s.Remaining,
		ResetAt:   s.ResetAt,
	}
}
