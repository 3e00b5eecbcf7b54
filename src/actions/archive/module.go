package archive

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govproposals/src/actions/archive/data"
	"github.com/stake-plus/govproposals/src/actions/core"
	shareddiscord "github.com/stake-plus/govproposals/src/discord"
	"gorm.io/gorm"
)

var _ core.Module = (*Module)(nil)

const (
	pageSize        = 100
	maxPagesPerPoll = 50
	discordEpochMs  = 1420070400000
)

// MessageFetcher is the part of *discordgo.Session the archive reads history with.
type MessageFetcher interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// Module copies the history of the configured channels into the messages table.
type Module struct {
	db       *gorm.DB
	fetcher  MessageFetcher
	channels []string
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewModule(db *gorm.DB, fetcher MessageFetcher, channels []string, interval time.Duration) *Module {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Module{
		db:       db,
		fetcher:  fetcher,
		channels: append([]string(nil), channels...),
		interval: interval,
	}
}

// Name implements actions.Module.
func (m *Module) Name() string { return "archive" }

func (m *Module) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			m.PollOnce(runCtx)
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	log.Printf("archive: watching %d channel(s) (interval=%v)", len(m.channels), m.interval)
	return nil
}

func (m *Module) Stop(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// PollOnce archives new messages from every channel and returns how many
// were stored. A failing channel is logged and skipped.
func (m *Module) PollOnce(ctx context.Context) int64 {
	var total int64
	for _, channelID := range m.channels {
		if ctx.Err() != nil {
			return total
		}
		n, err := m.pollChannel(ctx, channelID)
		if err != nil {
			log.Printf("archive: channel %s: %v", channelID, err)
		}
		if n > 0 {
			if archived, err := data.CountMessages(m.db.WithContext(ctx), channelID); err == nil {
				log.Printf("archive: channel %s: stored %d new message(s), %d archived", channelID, n, archived)
			}
		}
		total += n
	}
	return total
}

func (m *Module) pollChannel(ctx context.Context, channelID string) (int64, error) {
	after, err := m.startAfter(ctx, channelID)
	if err != nil {
		return 0, err
	}

	var stored int64
	for page := 0; page < maxPagesPerPoll; page++ {
		batch, err := m.fetcher.ChannelMessages(channelID, pageSize, "", strconv.FormatUint(after, 10), "")
		if err != nil {
			return stored, fmt.Errorf("fetch after %d: %w", after, err)
		}
		if len(batch) == 0 {
			return stored, nil
		}

		rows := make([]data.Message, 0, len(batch))
		for _, msg := range batch {
			row, ok := toRow(channelID, msg)
			if !ok {
				continue
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

		n, err := data.SaveMessages(m.db.WithContext(ctx), rows)
		if err != nil {
			return stored, fmt.Errorf("save: %w", err)
		}
		stored += n

		if len(rows) == 0 || rows[len(rows)-1].ID <= after {
			return stored, nil
		}
		after = rows[len(rows)-1].ID
		if len(batch) < pageSize {
			return stored, nil
		}
	}
	return stored, nil
}

// startAfter is the newest archived id for the channel, or the snowflake of
// the newest archived timestamp when the channel is new to the archive.
func (m *Module) startAfter(ctx context.Context, channelID string) (uint64, error) {
	db := m.db.WithContext(ctx)
	id, ok, err := data.LastMessageID(db, channelID)
	if err != nil {
		return 0, fmt.Errorf("last message id: %w", err)
	}
	if ok {
		return id, nil
	}
	last, err := data.LastMessageTime(db)
	if err != nil {
		return 0, fmt.Errorf("last message time: %w", err)
	}
	return snowflakeAt(last), nil
}

func toRow(channelID string, msg *discordgo.Message) (data.Message, bool) {
	if msg == nil {
		return data.Message{}, false
	}
	id, err := strconv.ParseUint(msg.ID, 10, 64)
	if err != nil {
		return data.Message{}, false
	}
	created := msg.Timestamp.UTC()
	if created.IsZero() {
		created = snowflakeTime(id)
	}
	return data.Message{
		ID:        id,
		ChannelID: channelID,
		Author:    shareddiscord.DisplayName(msg.Member, msg.Author),
		Content:   msg.ContentWithMentionsReplaced(),
		CreatedAt: created,
	}, true
}

// snowflakeAt is the smallest Discord id that can be created at t.
func snowflakeAt(t time.Time) uint64 {
	ms := t.UnixMilli() - discordEpochMs
	if ms <= 0 {
		return 0
	}
	return uint64(ms) << 22
}

func snowflakeTime(id uint64) time.Time {
	return time.UnixMilli(int64(id>>22) + discordEpochMs).UTC()
}
