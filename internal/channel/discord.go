package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"evabot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const discordMaxMsgLen = 2000

// Discord implements domain.Channel for Discord servers.
type Discord struct {
	token   string
	guildID string
	session *discordgo.Session
	bus     domain.MessageBus
	logger  *slog.Logger
}

type DiscordConfig struct {
	Token   string
	GuildID string
	Logger  *slog.Logger
}

func NewDiscord(cfg DiscordConfig) *Discord {
	return &Discord{
		token:   cfg.Token,
		guildID: cfg.GuildID,
		logger:  cfg.Logger,
	}
}

func (d *Discord) Name() string { return "discord" }

// Start connects to Discord with a bot token and listens until the
// context is cancelled.
func (d *Discord) Start(ctx context.Context, bus domain.MessageBus) error {
	d.bus = bus

	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	d.session = session

	bus.OnOutbound("discord", func(msg domain.OutboundMessage) {
		if msg.Content == "" {
			return
		}
		d.sendMessage(msg.ChatID, msg.Content)
	})

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.ID == s.State.User.ID {
			return
		}
		if d.guildID != "" && m.GuildID != d.guildID {
			return
		}

		d.logger.Info("discord message received",
			"author", m.Author.Username,
			"channel_id", m.ChannelID,
			"content_len", len(m.Content),
		)

		bus.Publish(domain.InboundMessage{
			Channel:   "discord",
			ChatID:    m.ChannelID,
			SenderID:  m.Author.ID,
			Content:   m.Content,
			IsGroup:   m.GuildID != "",
			Timestamp: time.Now(),
		})
	})

	// New guild members get a welcome through the engine's inbound path.
	session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildMemberAdd) {
		if d.guildID != "" && g.GuildID != d.guildID {
			return
		}
		if g.User == nil || g.User.Bot {
			return
		}
		channelID := d.systemChannel(g.GuildID)
		if channelID == "" {
			return
		}
		bus.Publish(domain.InboundMessage{
			Channel:   "discord",
			ChatID:    channelID,
			SenderID:  g.User.ID,
			IsGroup:   true,
			NewMember: true,
			Timestamp: time.Now(),
		})
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	d.logger.Info("discord bot connected", "user", session.State.User.Username)

	<-ctx.Done()
	d.logger.Info("discord bot disconnecting")
	return session.Close()
}

func (d *Discord) Stop() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}

func (d *Discord) Send(ctx context.Context, chatID string, content string) error {
	d.sendMessage(chatID, content)
	return nil
}

func (d *Discord) systemChannel(guildID string) string {
	guild, err := d.session.State.Guild(guildID)
	if err != nil || guild == nil {
		return ""
	}
	return guild.SystemChannelID
}

func (d *Discord) sendMessage(channelID, content string) {
	for _, chunk := range splitMessage(content, discordMaxMsgLen) {
		if _, err := d.session.ChannelMessageSend(channelID, chunk); err != nil {
			d.logger.Error("discord send failed", "channel", channelID, "err", err)
		}
	}
}

// splitMessage splits a message into chunks within maxLen, preferring
// newline boundaries.
func splitMessage(msg string, maxLen int) []string {
	if len(msg) <= maxLen {
		return []string{msg}
	}

	var chunks []string
	for len(msg) > 0 {
		if len(msg) <= maxLen {
			chunks = append(chunks, msg)
			break
		}

		cut := maxLen
		if idx := strings.LastIndex(msg[:maxLen], "\n"); idx > maxLen/2 {
			cut = idx + 1
		}

		chunks = append(chunks, msg[:cut])
		msg = msg[cut:]
	}
	return chunks
}
