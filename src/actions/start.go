package actions

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	archivemodule "github.com/stake-plus/govproposals/src/actions/archive"
	archivedata "github.com/stake-plus/govproposals/src/actions/archive/data"
	proposalsmodule "github.com/stake-plus/govproposals/src/actions/proposals"
	sweepermodule "github.com/stake-plus/govproposals/src/actions/sweeper"
	"github.com/stake-plus/govproposals/src/api/webserver"
	"github.com/stake-plus/govproposals/src/config"
	shareddata "github.com/stake-plus/govproposals/src/data"
	shareddiscord "github.com/stake-plus/govproposals/src/discord"
	"github.com/stake-plus/govproposals/src/notify"
	"github.com/stake-plus/govproposals/src/proposals"
	proposaldata "github.com/stake-plus/govproposals/src/proposals/data"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the bot uses.
func Migrate(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"settings", shareddata.Migrate},
		{"proposals", proposaldata.Migrate},
		{"messages", archivedata.Migrate},
	}
	for _, s := range steps {
		if err := s.fn(db); err != nil {
			return fmt.Errorf("actions: migrate %s: %w", s.name, err)
		}
	}
	return nil
}

// StartAll wires up the enabled modules and starts the manager. rdb may be nil.
func StartAll(ctx context.Context, cfg config.Config, db *gorm.DB, rdb *redis.Client) (*Manager, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("actions: create Discord session: %w", err)
	}

	engine := proposals.NewEngine(proposaldata.NewStore(db))
	renderer := proposals.Renderer{
		Prefix:      cfg.Bot.Prefix,
		VoteCommand: shareddiscord.CommandVote,
		Location:    loc,
	}

	notifiers := notify.Multi{&notify.Discord{Sender: session, ChannelIDs: cfg.Bot.Channels}}
	if rdb != nil {
		notifiers = append(notifiers, &notify.RedisStream{Client: rdb, Stream: shareddata.ProposalStream})
		log.Printf("actions: announcing resolved proposals to redis stream %s", shareddata.ProposalStream)
	}

	mgr := NewManager()

	handler := &proposalsmodule.Handler{Engine: engine, Renderer: renderer}
	if cfg.Bot.ProposeCooldown > 0 {
		handler.Limiter = proposalsmodule.NewRateLimiter(cfg.Bot.ProposeCooldown)
	}
	if err := mgr.Add(proposalsmodule.NewModule(cfg.Bot, session, handler)); err != nil {
		return nil, fmt.Errorf("actions: add proposals module: %w", err)
	}

	sweeper := sweepermodule.NewModule(engine, notifiers, renderer, cfg.Sweeper.Interval)
	if err := mgr.Add(sweeper); err != nil {
		return nil, fmt.Errorf("actions: add sweeper module: %w", err)
	}

	if cfg.Archive.Enabled {
		if err := mgr.Add(archivemodule.NewModule(db, session, cfg.Bot.Channels, cfg.Archive.Interval)); err != nil {
			return nil, fmt.Errorf("actions: add archive module: %w", err)
		}
	} else {
		log.Printf("actions: archive module disabled via configuration")
	}

	if cfg.API.Listen != "" {
		router := webserver.New(cfg.API, engine, sweeper, renderer)
		if err := mgr.Add(webserver.NewServer(cfg.API.Listen, router)); err != nil {
			return nil, fmt.Errorf("actions: add api module: %w", err)
		}
	} else {
		log.Printf("actions: api disabled, api.listen is empty")
	}

	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	return mgr, nil
}
