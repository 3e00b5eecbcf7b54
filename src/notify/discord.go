package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/govproposals/src/discord"
	"github.com/stake-plus/govproposals/src/logging"
	"github.com/stake-plus/govproposals/src/proposals"
	"github.com/stake-plus/govproposals/src/shared/retry"
)

// ChannelSender is the part of *discordgo.Session used to post messages.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts announcements into a fixed set of channels.
type Discord struct {
	Sender     ChannelSender
	ChannelIDs []string
	Attempts   int
	RetryDelay time.Duration
}

func (d *Discord) Notify(ctx context.Context, p proposals.Proposal, text string) error {
	if d.Sender == nil {
		return fmt.Errorf("notify: discord sender is not configured")
	}
	attempts := d.Attempts
	if attempts <= 0 {
		attempts = 3
	}

	chunks := shareddiscord.SplitMessage(shareddiscord.WrapURLsNoEmbed(text))
	var errs []error
	for _, channelID := range d.ChannelIDs {
		for _, chunk := range chunks {
			err := retry.Do(ctx, attempts, d.RetryDelay, logging.IsTransient, func() error {
				_, err := d.Sender.ChannelMessageSend(channelID, chunk)
				return err
			})
			if err != nil {
				log.Printf("notify: proposal %d to channel %s failed: %v", p.ID, channelID, err)
				errs = append(errs, fmt.Errorf("channel %s: %w", channelID, err))
				break
			}
		}
	}
	return errors.Join(errs...)
}
