package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/divcode-web/Trueconnect-bot/internal/domain/apperr"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/enums"
	"github.com/divcode-web/Trueconnect-bot/internal/domain/model"
)

const profileColumns = `
	p.user_id,
	u.telegram_id,
	p.display_name,
	p.age,
	p.gender,
	p.lat,
	p.lon,
	p.interests,
	p.lifestyle,
	p.education,
	p.profession,
	p.bio,
	p.is_verified,
	p.profile_completed,
	p.pref_min_age,
	p.pref_max_age,
	p.pref_max_distance_km,
	p.pref_gender,
	p.updated_at`

// findCandidatesQuery returns the nearest eligible profiles with blocked pairs excluded in both directions.
const findCandidatesQuery = `
SELECT`+profileColumns+`
FROM profiles p
JOIN users u ON u.id = p.user_id
CROSS JOIN LATERAL (
	SELECT 6371 * 2 * ASIN(LEAST(1, SQRT(
		POWER(SIN(RADIANS(p.lat - $2) / 2), 2) +
		COS(RADIANS($2)) * COS(RADIANS(p.lat)) * POWER(SIN(RADIANS(p.lon - $3) / 2), 2)
	))) AS distance_km
) d
WHERE p.user_id <> $1
  AND p.profile_completed
  AND p.lat IS NOT NULL
  AND p.lon IS NOT NULL
  AND p.age BETWEEN $4 AND $5
  AND ($6 = '' OR p.gender = $6)
  AND p.user_id <> ALL($7)
  AND d.distance_km <= $8
  AND NOT EXISTS (
	SELECT 1
	FROM user_blocks b
	WHERE (b.actor_user_id = $1 AND b.target_user_id = p.user_id)
	   OR (b.actor_user_id = p.user_id AND b.target_user_id = $1)
  )
ORDER BY d.distance_km ASC, p.user_id ASC
LIMIT $9
`

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, `
SELECT`+profileColumns+`
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE p.user_id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, apperr.ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	photos, err := r.listPhotos(ctx, []int64{userID})
	if err != nil {
		return model.Profile{}, err
	}
	profile.Photos = photos[userID]

	return profile, nil
}

// FindCandidates pushes the coarse directory filter and block exclusion down to SQL.
// The pool is the nearest rows first, so a capped pool drops the farthest profiles. The caller re-checks every row.
func (r *ProfileRepo) FindCandidates(ctx context.Context, filter model.CandidateFilter) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if filter.Limit <= 0 {
		return []model.Profile{}, nil
	}

	gender := ""
	if filter.PreferredGender != "" && filter.PreferredGender != enums.GenderBoth {
		gender = string(filter.PreferredGender)
	}
	exclude := filter.ExcludeUserIDs
	if exclude == nil {
		exclude = []int64{}
	}

	rows, err := r.pool.Query(ctx, findCandidatesQuery,
		filter.SeekerID,
		filter.Lat,
		filter.Lon,
		filter.MinAge,
		filter.MaxAge,
		gender,
		exclude,
		float64(filter.MaxDistanceKM),
		filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	items := make([]model.Profile, 0, filter.Limit)
	ids := make([]int64, 0, filter.Limit)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, profile)
		ids = append(ids, profile.UserID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	photos, err := r.listPhotos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Photos = photos[items[i].UserID]
	}

	return items, nil
}

func (r *ProfileRepo) SaveLocation(ctx context.Context, userID int64, lat, lon float64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	const query = `
INSERT INTO profiles (
	user_id,
	display_name,
	lat,
	lon,
	updated_at
) VALUES ($1, '', $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	updated_at = EXCLUDED.updated_at
`

	if _, err := r.pool.Exec(ctx, query, userID, lat, lon, at.UTC()); err != nil {
		return fmt.Errorf("save profile location: %w", err)
	}

	return nil
}

func (r *ProfileRepo) listPhotos(ctx context.Context, userIDs []int64) (map[int64][]model.Photo, error) {
	rows, err := r.pool.Query(ctx, `
SELECT user_id, file_id, object_key, is_primary
FROM profile_photos
WHERE user_id = ANY($1)
ORDER BY user_id, is_primary DESC, position ASC, id ASC
`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query profile photos: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]model.Photo, len(userIDs))
	for rows.Next() {
		var (
			userID int64
			photo  model.Photo
		)
		if err := rows.Scan(&userID, &photo.FileID, &photo.ObjectKey, &photo.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan profile photo: %w", err)
		}
		out[userID] = append(out[userID], photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile photos: %w", err)
	}

	return out, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		profile    model.Profile
		gender     string
		prefGender string
	)
	if err := row.Scan(
		&profile.UserID,
		&profile.TelegramID,
		&profile.DisplayName,
		&profile.Age,
		&gender,
		&profile.Lat,
		&profile.Lon,
		&profile.Interests,
		&profile.Lifestyle,
		&profile.Education,
		&profile.Profession,
		&profile.Bio,
		&profile.IsVerified,
		&profile.ProfileCompleted,
		&profile.Preferences.MinAge,
		&profile.Preferences.MaxAge,
		&profile.Preferences.MaxDistanceKM,
		&prefGender,
		&profile.UpdatedAt,
	); err != nil {
		return model.Profile{}, err
	}

	profile.Gender = enums.ParseGender(gender)
	profile.Preferences.PreferredGender = enums.ParseGender(prefGender)
	profile.UpdatedAt = profile.UpdatedAt.UTC()

	return profile, nil
}
