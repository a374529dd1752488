package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kickfinder/backend/internal/model/questionnaire"
)

// Discord has a 2000 character limit; leave some margin.
const (
	messageLimit = 2000
	chunkLimit   = 1900
)

// channelAPI is the slice of the Discord REST API the responder needs.
type channelAPI interface {
	send(channelID string, msg *discordgo.MessageSend) (string, error)
	edit(channelID, messageID, content string) error
}

type sessionAPI struct {
	session *discordgo.Session
}

func (a sessionAPI) send(channelID string, msg *discordgo.MessageSend) (string, error) {
	sent, err := a.session.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (a sessionAPI) edit(channelID, messageID, content string) error {
	_, err := a.session.ChannelMessageEdit(channelID, messageID, content)
	return err
}

// channelResponder answers in the channel the event came from.
type channelResponder struct {
	api       channelAPI
	channelID string
}

func (r *channelResponder) Send(_ context.Context, reply questionnaire.Reply) (string, error) {
	chunks := splitMessage(reply.Text, chunkLimit)

	var lastID string
	for i, chunk := range chunks {
		msg := &discordgo.MessageSend{Content: chunk}
		if i == len(chunks)-1 {
			msg.Components = buttons(reply.Choices)
		}

		id, err := r.api.send(r.channelID, msg)
		if err != nil {
			return "", fmt.Errorf("send discord message: %w", err)
		}
		lastID = id
	}
	return lastID, nil
}

func (r *channelResponder) Edit(_ context.Context, messageID, text string) error {
	if len(text) <= messageLimit {
		return r.api.edit(r.channelID, messageID, text)
	}

	chunks := splitMessage(text, chunkLimit)
	if err := r.api.edit(r.channelID, messageID, chunks[0]); err != nil {
		return err
	}
	for _, chunk := range chunks[1:] {
		if _, err := r.api.send(r.channelID, &discordgo.MessageSend{Content: chunk}); err != nil {
			return fmt.Errorf("send discord continuation: %w", err)
		}
	}
	return nil
}

// buttons renders one button per row, matching the vertical keyboards of the prompts.
func buttons(choices []questionnaire.Choice) []discordgo.MessageComponent {
	if len(choices) == 0 {
		return nil
	}

	rows := make([]discordgo.MessageComponent, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: c.Label, Style: discordgo.PrimaryButton, CustomID: c.Value},
			},
		})
	}
	return rows
}

// splitMessage splits a message into chunks, preferring line then word boundaries.
func splitMessage(message string, maxLength int) []string {
	if len(message) <= maxLength {
		return []string{message}
	}

	var chunks []string
	for len(message) > maxLength {
		splitIndex := maxLength
		if idx := strings.LastIndex(message[:maxLength], "\n"); idx > maxLength/2 {
			splitIndex = idx
		} else if idx := strings.LastIndex(message[:maxLength], " "); idx > maxLength/2 {
			splitIndex = idx
		}

		chunks = append(chunks, message[:splitIndex])
		message = strings.TrimLeft(message[splitIndex:], " \n")
	}

	if len(message) > 0 {
		chunks = append(chunks, message)
	}
	return chunks
}
