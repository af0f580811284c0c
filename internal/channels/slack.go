package channels

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/config"
)

// SlackChannel implements Slack via Socket Mode. In channels the bot only
// reacts to mentions; DMs always go through.
type SlackChannel struct {
	Base
	cfg       *config.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
}

// NewSlackChannel creates a SlackChannel.
func NewSlackChannel(cfg *config.SlackConfig, b bus.Bus) *SlackChannel {
	return &SlackChannel{
		Base: NewBase(bus.ChannelSlack, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (s *SlackChannel) Name() string { return string(bus.ChannelSlack) }

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		slog.Warn("slack: bot/app token not configured")
		<-ctx.Done()
		return ctx.Err()
	}

	s.webClient = slackgo.New(s.cfg.BotToken,
		slackgo.OptionAppLevelToken(s.cfg.AppToken))

	// Resolve bot user ID so mentions can be recognised and stripped.
	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.botUserID = resp.UserID
		slog.Info("slack: connected", "bot_user_id", s.botUserID)
	}

	s.smClient = socketmode.New(s.webClient)

	go s.smClient.RunContext(ctx) //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(evt)
		}
	}
}

func (s *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	s.smClient.Ack(*evt.Request)
	cb, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	if cb.InnerEvent.Type != "message" && cb.InnerEvent.Type != "app_mention" {
		return
	}
	// Inner event data arrives as map[string]interface{}; parse manually.
	s.handleInnerEvent(cb.InnerEvent)
}

func (s *SlackChannel) handleInnerEvent(ev slackevents.EventsAPIInnerEvent) {
	data, ok := ev.Data.(map[string]interface{})
	if !ok {
		return
	}
	userID, _ := data["user"].(string)
	channel, _ := data["channel"].(string)
	text, _ := data["text"].(string)
	subtype, _ := data["subtype"].(string)
	channelType, _ := data["channel_type"].(string)
	ts, _ := data["ts"].(string)
	threadTS, _ := data["thread_ts"].(string)

	if subtype != "" || userID == "" || channel == "" {
		return
	}
	if userID == s.botUserID {
		return
	}
	// Avoid double-processing mention + message events.
	if ev.Type == "message" && s.botUserID != "" && strings.Contains(text, "<@"+s.botUserID+">") {
		return
	}
	// Outside DMs, only respond when mentioned.
	if channelType != "im" && ev.Type != "app_mention" {
		return
	}

	text = s.stripMention(text)

	if s.cfg.ReplyInThread && threadTS == "" {
		threadTS = ts
	}

	s.HandleMessage(userID, channel, text, map[string]any{
		"slack": map[string]any{
			"thread_ts":    threadTS,
			"channel_type": channelType,
		},
	})
}

func (s *SlackChannel) stripMention(text string) string {
	if s.botUserID == "" {
		return text
	}
	re := regexp.MustCompile(`<@` + regexp.QuoteMeta(s.botUserID) + `>\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}

func (s *SlackChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if s.webClient == nil || msg.Content() == "" {
		return nil
	}
	slack := map[string]any{}
	if m, ok := msg.Metadata()["slack"].(map[string]any); ok {
		slack = m
	}
	threadTS, _ := slack["thread_ts"].(string)
	channelType, _ := slack["channel_type"].(string)

	var options []slackgo.MsgOption
	options = append(options, slackgo.MsgOptionText(msg.Content(), false))
	if threadTS != "" && channelType != "im" {
		options = append(options, slackgo.MsgOptionTS(threadTS))
	}

	_, _, err := s.webClient.PostMessageContext(ctx, msg.ChatID(), options...)
	return err
}
