package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/umputun/feedwatch/pkg/feed"
)

// ChannelRepository keeps the last loaded copy of every channel
type ChannelRepository struct {
	db *sqlx.DB
}

// channelRow is the channels table record, the channel itself is kept as JSON in data
type channelRow struct {
	AtomLink      string     `db:"atom_link"`
	Title         string     `db:"title"`
	ItemCount     int        `db:"item_count"`
	LastBuildDate *time.Time `db:"last_build_date"`
	Data          string     `db:"data"`
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *sqlx.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// SaveChannel inserts or replaces the stored copy of ch
func (r *ChannelRepository) SaveChannel(ctx context.Context, ch feed.Channel) error {
	row, err := toChannelRow(ch)
	if err != nil {
		return err
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		if _, err := r.db.NamedExecContext(ctx, upsertChannelQuery, row); err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("save channel %s: %w", ch.AtomLink, err)}
		}
		return nil
	})
}

// GetChannel returns the stored channel with the given self-link, ErrNotFound if there is none
func (r *ChannelRepository) GetChannel(ctx context.Context, atomLink string) (feed.Channel, error) {
	var data string
	err := r.db.GetContext(ctx, &data, "SELECT data FROM channels WHERE atom_link = ?", atomLink)
	if errors.Is(err, sql.ErrNoRows) {
		return feed.Channel{}, fmt.Errorf("get channel %s: %w", atomLink, ErrNotFound)
	}
	if err != nil {
		return feed.Channel{}, fmt.Errorf("get channel %s: %w", atomLink, err)
	}
	return fromChannelData(data)
}

// ListChannels returns all stored channels ordered by title
func (r *ChannelRepository) ListChannels(ctx context.Context) ([]feed.Channel, error) {
	var rows []string
	if err := r.db.SelectContext(ctx, &rows, "SELECT data FROM channels ORDER BY title, atom_link"); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	res := make([]feed.Channel, 0, len(rows))
	for _, data := range rows {
		ch, err := fromChannelData(data)
		if err != nil {
			return nil, err
		}
		res = append(res, ch)
	}
	return res, nil
}

// DeleteChannel removes the stored channel, deleting a missing channel is not an error
func (r *ChannelRepository) DeleteChannel(ctx context.Context, atomLink string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM channels WHERE atom_link = ?", atomLink); err != nil {
		return fmt.Errorf("delete channel %s: %w", atomLink, err)
	}
	return nil
}

// SyncChannels makes the table follow the in-memory channels in one transaction.
// Loaded channels are saved, loading ones and empty placeholders keep their stored copy,
// rows of channels no longer present are removed.
func (r *ChannelRepository) SyncChannels(ctx context.Context, channels []feed.Channel) error {
	rows := make([]channelRow, 0, len(channels))
	keep := make([]string, 0, len(channels))
	for _, ch := range channels {
		keep = append(keep, ch.AtomLink)
		if ch.Loading || isPlaceholder(ch) {
			continue
		}
		row, err := toChannelRow(ch)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		err := r.syncTx(ctx, rows, keep)
		if err != nil && !isLockError(err) {
			return &criticalError{err: err}
		}
		return err
	})
}

func (r *ChannelRepository) syncTx(ctx context.Context, rows []channelRow, keep []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, row := range rows {
		if _, err = tx.NamedExecContext(ctx, upsertChannelQuery, row); err != nil {
			return fmt.Errorf("sync channel %s: %w", row.AtomLink, err)
		}
	}

	if len(keep) == 0 {
		if _, err = tx.ExecContext(ctx, "DELETE FROM channels"); err != nil {
			return fmt.Errorf("clear channels: %w", err)
		}
	} else {
		query, args, inErr := sqlx.In("DELETE FROM channels WHERE atom_link NOT IN (?)", keep)
		if inErr != nil {
			return fmt.Errorf("build cleanup query: %w", inErr)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("drop stale channels: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}
	return nil
}

const upsertChannelQuery = `
	INSERT INTO channels (atom_link, title, item_count, last_build_date, data, updated_at)
	VALUES (:atom_link, :title, :item_count, :last_build_date, :data, datetime('now'))
	ON CONFLICT(atom_link) DO UPDATE SET
		title = excluded.title,
		item_count = excluded.item_count,
		last_build_date = excluded.last_build_date,
		data = excluded.data,
		updated_at = excluded.updated_at
`

// isPlaceholder reports a channel without any loaded content
func isPlaceholder(ch feed.Channel) bool {
	return ch.Title == "" && ch.Description == "" && len(ch.Items) == 0
}

func toChannelRow(ch feed.Channel) (channelRow, error) {
	ch.Loading = false
	data, err := json.Marshal(ch)
	if err != nil {
		return channelRow{}, fmt.Errorf("marshal channel %s: %w", ch.AtomLink, err)
	}
	row := channelRow{AtomLink: ch.AtomLink, Title: ch.Title, ItemCount: len(ch.Items), Data: string(data)}
	if ch.LastBuildDate != nil && ch.LastBuildDate.IsValid() {
		ts := ch.LastBuildDate.Time()
		row.LastBuildDate = &ts
	}
	return row, nil
}

func fromChannelData(data string) (feed.Channel, error) {
	ch := feed.NewChannel()
	if err := json.Unmarshal([]byte(data), &ch); err != nil {
		return feed.Channel{}, fmt.Errorf("unmarshal channel: %w", err)
	}
	if ch.Items == nil {
		ch.Items = []feed.Item{}
	}
	for i := range ch.Items {
		if ch.Items[i].Categories == nil {
			ch.Items[i].Categories = []string{}
		}
	}
	return ch, nil
}
