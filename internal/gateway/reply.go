package gateway

import (
	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0xb01e66

// Reply answers a message in its channel, referencing the original.
func Reply(s Session, m *discordgo.Message, content string) error {
	_, err := s.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	return err
}

// Message sends a plain text message to a channel.
func Message(s Session, channelID, content string) error {
	_, err := s.ChannelMessageSend(channelID, content)
	return err
}

// MessageEmbed sends an embed to a channel.
func MessageEmbed(s Session, channelID string, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	_, err := s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// DirectMessage opens (or reuses) a DM channel with the user and sends content.
func DirectMessage(s Session, userID, content string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSend(ch.ID, content)
	return err
}
