package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/EpicAlbin03/hermitcraft/internal/model"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

const channelColumns = `
	channel_id, name, handle, description, avatar_url, banner_url,
	view_count, subscriber_count, video_count, joined_at,
	twitch_user_id, twitch_user_login, is_live, live_video_id, links,
	created_at, updated_at`

// UpsertChannel inserts the channel or refreshes its profile columns.
// Twitch linkage, links, is_live and live_video_id keep their stored values
// when the input leaves them nil.
func (r *ChannelRepo) UpsertChannel(ctx context.Context, in model.ChannelUpsert) (model.UpsertOutcome, error) {
	links, err := encodeLinks(in.Links)
	if err != nil {
		return "", wrap("upsert channel", err)
	}

	query := `
		INSERT INTO channels (
			channel_id, name, handle, description, avatar_url, banner_url,
			view_count, subscriber_count, video_count, joined_at,
			twitch_user_id, twitch_user_login, links, is_live, live_video_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			COALESCE($13::jsonb, '[]'::jsonb), COALESCE($14::boolean, FALSE), $15
		)
		ON CONFLICT (channel_id) DO UPDATE SET
			name              = EXCLUDED.name,
			handle            = EXCLUDED.handle,
			description       = EXCLUDED.description,
			avatar_url        = EXCLUDED.avatar_url,
			banner_url        = EXCLUDED.banner_url,
			view_count        = EXCLUDED.view_count,
			subscriber_count  = EXCLUDED.subscriber_count,
			video_count       = EXCLUDED.video_count,
			joined_at         = EXCLUDED.joined_at,
			twitch_user_id    = COALESCE($11, channels.twitch_user_id),
			twitch_user_login = COALESCE($12, channels.twitch_user_login),
			links             = COALESCE($13::jsonb, channels.links),
			is_live           = COALESCE($14::boolean, channels.is_live),
			live_video_id     = COALESCE($15, channels.live_video_id),
			updated_at        = NOW()
		RETURNING (xmax = 0)`

	var inserted bool
	err = r.pool.QueryRow(ctx, query,
		in.ChannelID, in.Name, in.Handle, in.Description, in.AvatarURL, in.BannerURL,
		in.ViewCount, in.SubscriberCount, in.VideoCount, in.JoinedAt,
		in.TwitchUserID, in.TwitchUserLogin, links, in.IsLive, in.LiveVideoID,
	).Scan(&inserted)
	if err != nil {
		return "", wrap("upsert channel", err)
	}
	if inserted {
		return model.OutcomeInserted, nil
	}
	return model.OutcomeUpdated, nil
}

// GetChannel returns one channel by id.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE channel_id = $1`, channelID)
	c, err := scanChannel(row)
	if err != nil {
		return nil, wrap("get channel", err)
	}
	return c, nil
}

// ListChannelIDs returns every stored channel id.
func (r *ChannelRepo) ListChannelIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT channel_id FROM channels ORDER BY channel_id`)
	if err != nil {
		return nil, wrap("list channel ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrap("list channel ids", err)
	}
	return ids, nil
}

// ListDescriptors returns the sync input for every stored channel.
func (r *ChannelRepo) ListDescriptors(ctx context.Context) ([]model.ChannelDescriptor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel_id, name, COALESCE(twitch_user_id, ''), COALESCE(twitch_user_login, ''), links
		FROM channels
		ORDER BY channel_id`)
	if err != nil {
		return nil, wrap("list descriptors", err)
	}
	defer rows.Close()

	var out []model.ChannelDescriptor
	for rows.Next() {
		var d model.ChannelDescriptor
		var raw []byte
		if err := rows.Scan(&d.ChannelID, &d.Name, &d.TwitchUserID, &d.TwitchUserLogin, &raw); err != nil {
			return nil, wrap("list descriptors", err)
		}
		if d.Links, err = decodeLinks(raw); err != nil {
			return nil, wrap("list descriptors", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list descriptors", err)
	}
	return out, nil
}

// ListLiveLinks returns the channels that carry a Twitch user id.
func (r *ChannelRepo) ListLiveLinks(ctx context.Context) ([]model.LiveLink, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel_id, twitch_user_id, is_live
		FROM channels
		WHERE twitch_user_id IS NOT NULL AND twitch_user_id <> ''
		ORDER BY channel_id`)
	if err != nil {
		return nil, wrap("list live links", err)
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LiveLink, error) {
		var l model.LiveLink
		err := row.Scan(&l.ChannelID, &l.TwitchUserID, &l.IsLive)
		return l, err
	})
	if err != nil {
		return nil, wrap("list live links", err)
	}
	return links, nil
}

// UpdateChannel applies a partial update. An empty patch is a no-op.
func (r *ChannelRepo) UpdateChannel(ctx context.Context, channelID string, patch model.ChannelPatch) error {
	if patch.Empty() {
		return nil
	}

	var sets []string
	args := []any{channelID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Handle != nil {
		add("handle", *patch.Handle)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.BannerURL != nil {
		add("banner_url", *patch.BannerURL)
	}
	if patch.TwitchUserID != nil {
		add("twitch_user_id", *patch.TwitchUserID)
	}
	if patch.TwitchUserLogin != nil {
		add("twitch_user_login", *patch.TwitchUserLogin)
	}
	if patch.IsLive != nil {
		add("is_live", *patch.IsLive)
	}
	if patch.Links != nil {
		raw, err := encodeLinks(patch.Links)
		if err != nil {
			return wrap("update channel", err)
		}
		add("links", raw)
	}

	query := fmt.Sprintf(`UPDATE channels SET %s, updated_at = NOW() WHERE channel_id = $1`, strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return wrap("update channel", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("update channel", pgx.ErrNoRows)
	}
	return nil
}

// DeleteChannel removes a channel and, through the foreign key, its videos.
func (r *ChannelRepo) DeleteChannel(ctx context.Context, channelID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return wrap("delete channel", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete channel", pgx.ErrNoRows)
	}
	return nil
}

// DeleteAllChannels wipes the channels table.
func (r *ChannelRepo) DeleteAllChannels(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM channels`)
	if err != nil {
		return 0, wrap("delete all channels", err)
	}
	return tag.RowsAffected(), nil
}

func scanChannel(row pgx.Row) (*model.Channel, error) {
	var c model.Channel
	var raw []byte
	err := row.Scan(
		&c.ChannelID, &c.Name, &c.Handle, &c.Description, &c.AvatarURL, &c.BannerURL,
		&c.ViewCount, &c.SubscriberCount, &c.VideoCount, &c.JoinedAt,
		&c.TwitchUserID, &c.TwitchUserLogin, &c.IsLive, &c.LiveVideoID, &raw,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Links, err = decodeLinks(raw); err != nil {
		return nil, err
	}
	return &c, nil
}

// encodeLinks returns nil for nil input so the column keeps its value.
func encodeLinks(links []model.Link) ([]byte, error) {
	if links == nil {
		return nil, nil
	}
	return json.Marshal(links)
}

func decodeLinks(raw []byte) ([]model.Link, error) {
	links := []model.Link{}
	if len(raw) == 0 {
		return links, nil
	}
	if err := json.Unmarshal(raw, &links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return links, nil
}
