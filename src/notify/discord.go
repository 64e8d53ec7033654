package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/stake-plus/middlefinger/src/types"
)

const discordMessageLimit = 2000

type channelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts each submission to one channel.
type Discord struct {
	session   channelSender
	channelID string
}

// NewDiscord opens a bot session for token.
func NewDiscord(token, channelID string) (*Discord, error) {
	if channelID == "" {
		return nil, fmt.Errorf("discord channel id is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: s, channelID: channelID}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Notify(ctx context.Context, sub types.Submission) error {
	_, err := d.session.ChannelMessageSendComplex(d.channelID, &discordgo.MessageSend{
		Content: discordContent(sub),
		// On-chain text must never ping anyone.
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func discordContent(sub types.Submission) string {
	header := fmt.Sprintf("🖕 New middle finger from `%s` at <t:%d:f>", sub.Address.Hex(), sub.Timestamp.Unix())
	body := strings.TrimSpace(sub.Message)
	if body == "" {
		return header
	}
	quoted := "> " + strings.ReplaceAll(body, "\n", "\n> ")
	content := header + "\n" + quoted
	if len([]rune(content)) > discordMessageLimit {
		r := []rune(content)
		content = string(r[:discordMessageLimit-1]) + "…"
	}
	return content
}
