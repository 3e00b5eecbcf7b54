package archive

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govproposals/src/actions/archive/data"
	shareddata "github.com/stake-plus/govproposals/src/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := shareddata.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))
	return db
}

// fakeHistory serves a channel's messages the way Discord does: at most
// limit messages after afterID, newest first.
type fakeHistory struct {
	messages map[string][]*discordgo.Message
	failing  map[string]bool
	calls    []string
}

func (f *fakeHistory) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.calls = append(f.calls, channelID+"/"+afterID)
	if f.failing[channelID] {
		return nil, errors.New("missing access")
	}
	after, _ := strconv.ParseUint(afterID, 10, 64)

	var out []*discordgo.Message
	for _, m := range f.messages[channelID] {
		id, _ := strconv.ParseUint(m.ID, 10, 64)
		if id > after {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

var base = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func makeMessages(n int) []*discordgo.Message {
	out := make([]*discordgo.Message, 0, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		out = append(out, &discordgo.Message{
			ID:        strconv.FormatUint(snowflakeAt(ts)+uint64(i), 10),
			Content:   "mensagem " + strconv.Itoa(i),
			Timestamp: ts,
			Author:    &discordgo.User{ID: "u", Username: "ana"},
			Member:    &discordgo.Member{Nick: "Ana Jardineira"},
		})
	}
	return out
}

func TestPollOnceArchivesAllPagesOnce(t *testing.T) {
	db := openDB(t)
	history := &fakeHistory{messages: map[string][]*discordgo.Message{"c1": makeMessages(250)}}
	m := NewModule(db, history, []string{"c1"}, time.Hour)

	assert.Equal(t, int64(250), m.PollOnce(context.Background()))
	count, err := data.CountMessages(db, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), count)

	// nothing new on the next poll
	assert.Equal(t, int64(0), m.PollOnce(context.Background()))

	var first data.Message
	require.NoError(t, db.Order("id ASC").First(&first).Error)
	assert.Equal(t, "Ana Jardineira", first.Author)
	assert.Equal(t, "mensagem 0", first.Content)
	assert.True(t, base.Equal(first.CreatedAt))

	last, err := data.LastMessageTime(db)
	require.NoError(t, err)
	assert.True(t, base.Add(249*time.Second).Equal(last))
}

func TestPollOnceSkipsFailingChannel(t *testing.T) {
	db := openDB(t)
	history := &fakeHistory{
		messages: map[string][]*discordgo.Message{"ok": makeMessages(3)},
		failing:  map[string]bool{"broken": true},
	}
	m := NewModule(db, history, []string{"broken", "ok"}, time.Hour)

	assert.Equal(t, int64(3), m.PollOnce(context.Background()))
}

func TestEmptyArchiveStartsAtDefault(t *testing.T) {
	db := openDB(t)
	last, err := data.LastMessageTime(db)
	require.NoError(t, err)
	assert.True(t, data.DefaultStart.Equal(last))

	history := &fakeHistory{}
	m := NewModule(db, history, []string{"c1"}, time.Hour)
	m.PollOnce(context.Background())
	require.Len(t, history.calls, 1)
	assert.Equal(t, "c1/"+strconv.FormatUint(snowflakeAt(data.DefaultStart), 10), history.calls[0])
}

func TestSaveMessagesIsIdempotent(t *testing.T) {
	db := openDB(t)
	rows := []data.Message{{ID: 10, ChannelID: "c", Author: "a", Content: "x", CreatedAt: base}}

	n, err := data.SaveMessages(db, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = data.SaveMessages(db, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSnowflakeRoundTrip(t *testing.T) {
	id := snowflakeAt(base)
	assert.True(t, base.Equal(snowflakeTime(id)))
	assert.Equal(t, uint64(0), snowflakeAt(time.Unix(0, 0)))
}
