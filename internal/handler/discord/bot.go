package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kickfinder/backend/internal/model/questionnaire"
	"github.com/kickfinder/backend/internal/service/conversation"
)

const eventTimeout = 30 * time.Second

// Controller is the part of the conversation service the bot drives.
type Controller interface {
	Handle(ctx context.Context, ev questionnaire.Event, out questionnaire.Responder) error
}

// Bot bridges Discord messages and button presses to the questionnaire.
type Bot struct {
	session       *discordgo.Session
	api           channelAPI
	controller    Controller
	commandPrefix string
	startTime     time.Time
}

// New creates the Discord session and registers handlers. Call Start to connect.
func New(token, commandPrefix string, controller Controller) (*Bot, error) {
	if token == "" {
		return nil, errors.New("discord bot token is required")
	}
	if commandPrefix == "" {
		commandPrefix = "!"
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	bot := &Bot{
		session:       session,
		api:           sessionAPI{session: session},
		controller:    controller,
		commandPrefix: commandPrefix,
		startTime:     time.Now(),
	}

	session.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		log.Printf("[discord] bot is online as: %s (%d servers)", event.User.Username, len(event.Guilds))
	})
	session.AddHandler(bot.messageCreate)
	session.AddHandler(bot.interactionCreate)

	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	log.Printf("[discord] initialized with prefix: %s", commandPrefix)
	return bot, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening Discord connection: %w", err)
	}
	log.Printf("[discord] started; use '%sstart' to begin a selection", b.commandPrefix)
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}

// Status reports connection details for the health endpoint.
func (b *Bot) Status() map[string]interface{} {
	status := map[string]interface{}{
		"command_prefix": b.commandPrefix,
		"uptime":         time.Since(b.startTime).String(),
	}
	if b.session != nil && b.session.State != nil && b.session.State.User != nil {
		status["status"] = "connected"
		status["user"] = b.session.State.User.Username
		status["guilds"] = len(b.session.State.Guilds)
	} else {
		status["status"] = "initialized_not_started"
	}
	return status
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	ev := messageEvent(b.commandPrefix, m.Author.ID, m.ChannelID, m.Content)
	b.dispatch(ev, &channelResponder{api: b.api, channelID: m.ChannelID})
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ev, ok := interactionEvent(i)
	if !ok {
		return
	}

	// Acknowledge within Discord's 3s window; replies go out as channel messages.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("[discord] interaction ack failed: %v", err)
	}

	b.dispatch(ev, &channelResponder{api: b.api, channelID: i.ChannelID})
}

func (b *Bot) dispatch(ev questionnaire.Event, out questionnaire.Responder) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	err := b.controller.Handle(ctx, ev, out)
	switch {
	case err == nil, errors.Is(err, conversation.ErrNoSession):
	case errors.Is(err, questionnaire.ErrMalformedInput):
		log.Printf("[discord] user=%s re-prompted: %v", ev.UserID, err)
	default:
		log.Printf("[discord] user=%s event=%s: %v", ev.UserID, ev.Kind, err)
	}
}

// messageEvent turns a chat message into a command or free-text event.
func messageEvent(prefix, userID, channelID, content string) questionnaire.Event {
	content = strings.TrimSpace(content)
	ev := questionnaire.Event{UserID: userID, ChatID: channelID, Kind: questionnaire.EventText, Value: content}

	if prefix != "" && strings.HasPrefix(content, prefix) {
		fields := strings.Fields(content[len(prefix):])
		if len(fields) > 0 {
			ev.Kind = questionnaire.EventCommand
			ev.Value = fields[0]
		}
	}
	return ev
}

// interactionEvent extracts a choice event from a button press.
func interactionEvent(i *discordgo.InteractionCreate) (questionnaire.Event, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return questionnaire.Event{}, false
	}

	var userID string
	switch {
	case i.Member != nil && i.Member.User != nil:
		userID = i.Member.User.ID
	case i.User != nil:
		userID = i.User.ID
	default:
		return questionnaire.Event{}, false
	}

	return questionnaire.Event{
		UserID: userID,
		ChatID: i.ChannelID,
		Kind:   questionnaire.EventChoice,
		Value:  i.MessageComponentData().CustomID,
	}, true
}
