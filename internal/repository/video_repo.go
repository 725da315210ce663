package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
	"github.com/EpicAlbin03/hermitcraft/pkg/isoduration"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

const videoColumns = `
	video_id, channel_id, title, thumbnail_url, published_at, duration,
	view_count, like_count, comment_count, is_short, privacy_status, upload_status,
	livestream_type, livestream_scheduled_start_time, livestream_actual_start_time,
	livestream_concurrent_viewers, created_at, updated_at`

// Insert-or-update. is_short is written only on insert. Livestream timing
// columns keep their stored value when the new observation has none.
const upsertVideoSQL = `
	INSERT INTO videos (
		video_id, channel_id, title, thumbnail_url, published_at, duration,
		view_count, like_count, comment_count, is_short, privacy_status, upload_status,
		livestream_type, livestream_scheduled_start_time, livestream_actual_start_time,
		livestream_concurrent_viewers
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (video_id) DO UPDATE SET
		title                           = EXCLUDED.title,
		thumbnail_url                   = EXCLUDED.thumbnail_url,
		published_at                    = EXCLUDED.published_at,
		duration                        = EXCLUDED.duration,
		view_count                      = EXCLUDED.view_count,
		like_count                      = EXCLUDED.like_count,
		comment_count                   = EXCLUDED.comment_count,
		privacy_status                  = EXCLUDED.privacy_status,
		upload_status                   = EXCLUDED.upload_status,
		livestream_type                 = EXCLUDED.livestream_type,
		livestream_scheduled_start_time = COALESCE(EXCLUDED.livestream_scheduled_start_time, videos.livestream_scheduled_start_time),
		livestream_actual_start_time    = COALESCE(EXCLUDED.livestream_actual_start_time, videos.livestream_actual_start_time),
		livestream_concurrent_viewers   = COALESCE(EXCLUDED.livestream_concurrent_viewers, videos.livestream_concurrent_viewers),
		updated_at                      = NOW()
	RETURNING (xmax = 0)`

// UpsertVideo writes one video observation.
//
// Videos without a positive duration are skipped. When the video is new or
// its livestream type changes, the row and the owning channel's
// live_video_id are written in one transaction that re-reads the pointer
// under a row lock. Otherwise only the video row is touched.
func (r *VideoRepo) UpsertVideo(ctx context.Context, in model.VideoUpsert) (model.UpsertOutcome, error) {
	if !isoduration.IsPositive(in.Duration) {
		return model.OutcomeSkipped, nil
	}

	var prev model.LivestreamType
	err := r.pool.QueryRow(ctx, `SELECT livestream_type FROM videos WHERE video_id = $1`, in.VideoID).Scan(&prev)
	exists := true
	if errors.Is(err, pgx.ErrNoRows) {
		exists = false
	} else if err != nil {
		return "", wrap("upsert video: read state", err)
	}

	if exists && model.ResolveLivestreamType(prev, in.LivestreamType) == prev {
		in.LivestreamType = prev
		if err := r.updateVideo(ctx, in); err != nil {
			return "", err
		}
		return model.OutcomeUpdated, nil
	}

	return r.upsertWithLivePointer(ctx, in)
}

func (r *VideoRepo) updateVideo(ctx context.Context, in model.VideoUpsert) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE videos SET
			title                           = $2,
			thumbnail_url                   = $3,
			published_at                    = $4,
			duration                        = $5,
			view_count                      = $6,
			like_count                      = $7,
			comment_count                   = $8,
			privacy_status                  = $9,
			upload_status                   = $10,
			livestream_scheduled_start_time = COALESCE($11, livestream_scheduled_start_time),
			livestream_actual_start_time    = COALESCE($12, livestream_actual_start_time),
			livestream_concurrent_viewers   = COALESCE($13, livestream_concurrent_viewers),
			updated_at                      = NOW()
		WHERE video_id = $1`,
		in.VideoID, in.Title, in.ThumbnailURL, in.PublishedAt, in.Duration,
		in.ViewCount, in.LikeCount, in.CommentCount,
		in.PrivacyStatus, in.UploadStatus,
		in.LivestreamScheduledStartTime, in.LivestreamActualStartTime, in.LivestreamConcurrentViewers,
	)
	return wrap("upsert video: update", err)
}

func (r *VideoRepo) upsertWithLivePointer(ctx context.Context, in model.VideoUpsert) (model.UpsertOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", wrap("upsert video: begin", err)
	}
	defer tx.Rollback(ctx)

	// Re-resolve against the locked row; another writer may have moved it.
	var prev model.LivestreamType
	err = tx.QueryRow(ctx, `SELECT livestream_type FROM videos WHERE video_id = $1 FOR UPDATE`, in.VideoID).Scan(&prev)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", wrap("upsert video: lock video", err)
	}
	newType := model.ResolveLivestreamType(prev, in.LivestreamType)

	var inserted bool
	err = tx.QueryRow(ctx, upsertVideoSQL,
		in.VideoID, in.ChannelID, in.Title, in.ThumbnailURL, in.PublishedAt, in.Duration,
		in.ViewCount, in.LikeCount, in.CommentCount, in.IsShort,
		in.PrivacyStatus, in.UploadStatus, newType,
		in.LivestreamScheduledStartTime, in.LivestreamActualStartTime, in.LivestreamConcurrentViewers,
	).Scan(&inserted)
	if err != nil {
		return "", wrap("upsert video: write", err)
	}

	// NO KEY UPDATE is compatible with the key-share lock the foreign key
	// check above holds; concurrent writers for one channel queue here.
	var current *string
	err = tx.QueryRow(ctx, `
		SELECT live_video_id FROM channels WHERE channel_id = $1 FOR NO KEY UPDATE`,
		in.ChannelID).Scan(&current)
	if err != nil {
		return "", wrap("upsert video: lock channel", err)
	}

	next := model.NextLiveVideoID(current, in.VideoID, newType)
	if !model.SameLiveVideoID(current, next) {
		_, err = tx.Exec(ctx, `
			UPDATE channels SET live_video_id = $1, updated_at = NOW() WHERE channel_id = $2`,
			next, in.ChannelID)
		if err != nil {
			return "", wrap("upsert video: set live pointer", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrap("upsert video: commit", err)
	}
	if inserted {
		return model.OutcomeInserted, nil
	}
	return model.OutcomeUpdated, nil
}

// GetVideo returns one video by id.
func (r *VideoRepo) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	var v model.Video
	err := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE video_id = $1`, videoID).Scan(
		&v.VideoID, &v.ChannelID, &v.Title, &v.ThumbnailURL, &v.PublishedAt, &v.Duration,
		&v.ViewCount, &v.LikeCount, &v.CommentCount, &v.IsShort, &v.PrivacyStatus, &v.UploadStatus,
		&v.LivestreamType, &v.LivestreamScheduledStartTime, &v.LivestreamActualStartTime,
		&v.LivestreamConcurrentViewers, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, wrap("get video", err)
	}
	return &v, nil
}

// GetVideoFlags returns the stored flags for every id that exists.
// Missing ids are absent from the map.
func (r *VideoRepo) GetVideoFlags(ctx context.Context, videoIDs []string) (map[string]model.VideoFlags, error) {
	out := make(map[string]model.VideoFlags, len(videoIDs))
	if len(videoIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT video_id, is_short, livestream_type, privacy_status
		FROM videos
		WHERE video_id = ANY($1)`, videoIDs)
	if err != nil {
		return nil, wrap("get video flags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var f model.VideoFlags
		if err := rows.Scan(&id, &f.IsShort, &f.LivestreamType, &f.PrivacyStatus); err != nil {
			return nil, wrap("get video flags", err)
		}
		out[id] = f
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get video flags", err)
	}
	return out, nil
}

// MarkVideosAsPrivate flips privacy_status to private for the given ids and
// returns how many rows changed. Other columns are left untouched.
func (r *VideoRepo) MarkVideosAsPrivate(ctx context.Context, videoIDs []string) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos SET privacy_status = 'private', updated_at = NOW()
		WHERE video_id = ANY($1) AND privacy_status <> 'private'`, videoIDs)
	if err != nil {
		return 0, wrap("mark videos private", err)
	}
	return tag.RowsAffected(), nil
}

// SetVideoShort overwrites is_short. This is the only write path for the
// flag after insert.
func (r *VideoRepo) SetVideoShort(ctx context.Context, videoID string, isShort bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos SET is_short = $1, updated_at = NOW() WHERE video_id = $2`, isShort, videoID)
	if err != nil {
		return wrap("set video short", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("set video short", pgx.ErrNoRows)
	}
	return nil
}

// DeleteVideo removes one video. A channel pointing at it is cleared in the
// same transaction.
func (r *VideoRepo) DeleteVideo(ctx context.Context, videoID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrap("delete video", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE video_id = $1`, videoID)
	if err != nil {
		return wrap("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete video", pgx.ErrNoRows)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE channels SET live_video_id = NULL, updated_at = NOW() WHERE live_video_id = $1`, videoID); err != nil {
		return wrap("delete video: clear live pointer", err)
	}
	return wrap("delete video: commit", tx.Commit(ctx))
}

// DeleteAllVideos wipes the videos table and every live pointer.
func (r *VideoRepo) DeleteAllVideos(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, wrap("delete all videos", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM videos`)
	if err != nil {
		return 0, wrap("delete all videos", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE channels SET live_video_id = NULL WHERE live_video_id IS NOT NULL`); err != nil {
		return 0, wrap("delete all videos: clear live pointers", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, wrap("delete all videos: commit", err)
	}
	return tag.RowsAffected(), nil
}
