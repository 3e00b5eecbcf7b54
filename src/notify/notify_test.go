package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/govproposals/src/proposals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channelID string
	content   string
}

type fakeSender struct {
	sent     []sentMessage
	failures map[string]int
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.failures[channelID] > 0 {
		f.failures[channelID]--
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func resolvedProposal() proposals.Proposal {
	decision := 1
	return proposals.Proposal{ID: 4, Status: proposals.StatusSucceeded, Decision: &decision, Options: []string{"Sim", "Não"}}
}

func TestDiscordPostsToEveryChannel(t *testing.T) {
	sender := &fakeSender{}
	n := &Discord{Sender: sender, ChannelIDs: []string{"c1", "c2"}}

	require.NoError(t, n.Notify(context.Background(), resolvedProposal(), "Proposta 4 aprovada"))
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "c1", sender.sent[0].channelID)
	assert.Equal(t, "c2", sender.sent[1].channelID)
	assert.Equal(t, "Proposta 4 aprovada", sender.sent[1].content)
}

func TestDiscordSplitsLongAnnouncements(t *testing.T) {
	sender := &fakeSender{}
	n := &Discord{Sender: sender, ChannelIDs: []string{"c1"}}

	text := strings.Repeat(strings.Repeat("x", 99)+"\n", 40)
	require.NoError(t, n.Notify(context.Background(), resolvedProposal(), text))
	require.Len(t, sender.sent, 3)
	for _, m := range sender.sent {
		assert.LessOrEqual(t, len([]rune(m.content)), 2000)
	}
}

func TestDiscordRetriesTransientFailures(t *testing.T) {
	sender := &fakeSender{failures: map[string]int{"c1": 2}, err: errors.New("connection reset")}
	n := &Discord{Sender: sender, ChannelIDs: []string{"c1"}, Attempts: 3, RetryDelay: time.Millisecond}

	require.NoError(t, n.Notify(context.Background(), resolvedProposal(), "hello"))
	assert.Len(t, sender.sent, 1)
}

func TestDiscordKeepsGoingAfterChannelFailure(t *testing.T) {
	sender := &fakeSender{failures: map[string]int{"bad": 5}, err: errors.New("connection reset")}
	n := &Discord{Sender: sender, ChannelIDs: []string{"bad", "good"}, Attempts: 2, RetryDelay: time.Millisecond}

	err := n.Notify(context.Background(), resolvedProposal(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel bad")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "good", sender.sent[0].channelID)
}

func TestMultiJoinsErrorsAndCallsEverySink(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	m := Multi{
		Func(func(ctx context.Context, p proposals.Proposal, text string) error {
			calls = append(calls, "a")
			return boom
		}),
		nil,
		Func(func(ctx context.Context, p proposals.Proposal, text string) error {
			calls = append(calls, "b")
			return nil
		}),
	}

	err := m.Notify(context.Background(), resolvedProposal(), "x")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

type fakeStream struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestRedisStreamPublishesProposalFields(t *testing.T) {
	stream := &fakeStream{}
	n := &RedisStream{Client: stream, Now: func() time.Time { return time.Unix(1700000000, 0) }}

	require.NoError(t, n.Notify(context.Background(), resolvedProposal(), "announcement"))
	require.Len(t, stream.args, 1)

	args := stream.args[0]
	assert.Equal(t, "govproposals.proposals", args.Stream)
	values, ok := args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "4", values["proposal_id"])
	assert.Equal(t, "succeeded", values["status"])
	assert.Equal(t, "1", values["decision"])
	assert.Equal(t, "announcement", values["text"])
	assert.Equal(t, int64(1700000000), values["time"])
	assert.NotEmpty(t, values["event_id"])
}

func TestRedisStreamWrapsErrors(t *testing.T) {
	stream := &fakeStream{err: errors.New("down")}
	n := &RedisStream{Client: stream, Stream: "custom"}

	err := n.Notify(context.Background(), resolvedProposal(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis stream custom")
}
