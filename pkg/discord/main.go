// Package discord is the transport layer: session setup, interaction
// dispatch, rendering, and the adapters the lifecycle engine talks to.
package discord

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
)

type controlHandler func(i *discordgo.InteractionCreate, c ControlID) error
type commandHandler func(i *discordgo.InteractionCreate) error

// Bot owns the session and routes interactions into the lifecycle engine.
type Bot struct {
	session  *discordgo.Session
	store    *store.Store
	registry *division.Registry
	engine   *lifecycle.Engine
	cfg      *global.Config
	logger   *slog.Logger

	// keyed "kind:action", rebuilt from custom ids so they survive restarts
	components map[string]controlHandler
	modals     map[string]controlHandler
	commands   map[string]commandHandler

	readyOnce sync.Once
}

// New creates the session, the engine with its platform adapters, and the
// dispatch tables. The session is not opened yet.
func New(
	cfg *global.Config,
	st *store.Store,
	reg *division.Registry,
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	logger = logger.With("component", "discord")
	engine := lifecycle.NewEngine(lifecycle.EngineConfig{
		Store:    st,
		Registry: reg,
		Cfg:      cfg,
		Guild:    &guildAdapter{session: session, guildID: cfg.GuildID},
		Auditor:  &channelAuditor{session: session, cfg: cfg, logger: logger},
		Notifier: &dmNotifier{session: session, logger: logger},
		Metrics:  lifecycle.NewMetrics(promRegistry),
		Logger:   logger,
	})

	b := &Bot{
		session:    session,
		store:      st,
		registry:   reg,
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
		components: make(map[string]controlHandler),
		modals:     make(map[string]controlHandler),
		commands:   make(map[string]commandHandler),
	}
	b.registerRoleHandlers()
	b.registerTransferHandlers()
	b.registerDismissalHandlers()
	b.registerReinstatementHandlers()
	b.registerTimeoffHandlers()
	b.registerSupplyHandlers()
	b.registerStaticHandlers()
	b.registerCommands()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMemberRemove)
	session.AddHandler(b.onMessage)
	return b, nil
}

// Engine exposes the lifecycle engine, mainly for the sync command.
func (b *Bot) Engine() *lifecycle.Engine { return b.engine }

// Session exposes the raw session for startup tasks.
func (b *Bot) Session() *discordgo.Session { return b.session }

// Open connects to the gateway.
func (b *Bot) Open() error {
	return b.session.Open()
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.engine.SetBotID(r.User.ID)
	b.logger.Info("gateway ready",
		"user", r.User.Username,
		"guilds", len(r.Guilds),
	)
	b.readyOnce.Do(func() {
		if err := b.registerApplicationCommands(); err != nil {
			b.logger.Error("slash command registration failed", "error", err)
		}
		b.refreshAllBottoms()
	})
}

func (b *Bot) onMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if e.GuildID != b.cfg.GuildID || e.User == nil {
		return
	}
	req, err := b.engine.FileAutoDismissal(e.User.ID)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrNotFound) {
			b.logger.Error("auto dismissal failed", "user_id", e.User.ID, "error", err)
		}
		return
	}
	b.postDismissalReview(req, e.User.ID)
}

// onMessage handles the administrative "!" refresh commands by keyword.
// The command message itself is deleted.
func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if !strings.HasPrefix(m.Content, "!") {
		return
	}
	refreshers := map[string]func() error{
		"updroles":     b.refreshRoleGetting,
		"updreinstate": b.refreshReinstatement,
		"upddismiss":   b.refreshDismissal,
		"updtimeoff":   b.refreshTimeoff,
		"updstorage":   b.refreshStorage,
		"updtransfer":  b.refreshTransferChannels,
	}
	keyword := strings.ToLower(strings.Fields(strings.TrimPrefix(m.Content, "!"))[0])
	fn, ok := refreshers[keyword]
	if !ok {
		return
	}
	if m.Member == nil || m.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		return
	}
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		b.logger.Warn("command message delete failed", "error", err)
	}
	if err := fn(); err != nil {
		b.logger.Error("refresh command failed", "command", keyword, "error", err)
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commands[name]
		if !ok {
			return
		}
		err = handler(i)
	case discordgo.InteractionMessageComponent:
		err = b.dispatchControl(b.components, i, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		err = b.dispatchControl(b.modals, i, i.ModalSubmitData().CustomID)
	default:
		return
	}
	if err != nil {
		b.respondError(i, err)
	}
}

func (b *Bot) dispatchControl(table map[string]controlHandler, i *discordgo.InteractionCreate, raw string) error {
	c, err := ParseControlID(raw)
	if err != nil {
		return err
	}
	handler, ok := table[c.Kind+":"+c.Action]
	if !ok {
		return fmt.Errorf("no handler for %q", raw)
	}
	return handler(i, c)
}

// respondError maps the engine error taxonomy to an ephemeral reply.
// Unexpected errors get a correlation token the user can quote.
func (b *Bot) respondError(i *discordgo.InteractionCreate, err error) {
	var msg string
	var permErr *lifecycle.PermissionError
	var cooldownErr *lifecycle.CooldownError
	var quotaErr *lifecycle.QuotaError
	var valErr *lifecycle.ValidationError
	var openErr *lifecycle.OpenRequestError
	var blErr *lifecycle.BlacklistedError
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyHandled):
		msg = "⏳ Эта заявка уже рассмотрена или рассматривается."
	case errors.Is(err, lifecycle.ErrNotFound):
		msg = "Запись не найдена."
	case errors.Is(err, lifecycle.ErrSyncFailed):
		msg = "Решение сохранено, но не удалось обновить роли. Обратитесь к администратору."
	case errors.As(err, &permErr):
		if permErr.MinRank >= 0 {
			msg = fmt.Sprintf("❌ Недостаточно прав. Требуется звание «%s» или выше.",
				b.cfg.RankName(permErr.MinRank))
		} else {
			msg = "❌ У вас нет прав на это действие."
		}
	case errors.As(err, &cooldownErr):
		h, m := cooldownErr.HoursMinutes()
		msg = fmt.Sprintf("⏳ Повторный запрос будет доступен через %dч %dм.", h, m)
	case errors.As(err, &quotaErr):
		msg = "⏳ " + quotaErr.Reason
	case errors.As(err, &valErr):
		msg = valErr.Message
	case errors.As(err, &openErr):
		msg = fmt.Sprintf("У вас уже есть активная заявка #%d.", openErr.ExistingID)
	case errors.As(err, &blErr):
		if blErr.EndsAt != nil {
			msg = fmt.Sprintf("❌ Вы находитесь в черном списке до <t:%d:d>.", blErr.EndsAt.Unix())
		} else {
			msg = "❌ Вы находитесь в черном списке бессрочно."
		}
	default:
		token := correlationToken()
		b.logger.Error("interaction failed",
			"token", token,
			"user_id", interactionUserID(i),
			"error", err,
		)
		msg = "Произошла непредвиденная ошибка. Код: `" + token + "`"
	}
	b.ephemeral(i, msg)
}

func correlationToken() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "deadbeef"
	}
	return hex.EncodeToString(buf)
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// ephemeral sends a private reply, falling back to a followup when the
// interaction was already acknowledged.
func (b *Bot) ephemeral(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		_, err = b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		if err != nil {
			b.logger.Warn("ephemeral reply failed", "error", err)
		}
	}
}

func (b *Bot) respondModal(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
}

// updateSource edits the message the component lives on.
func (b *Bot) updateSource(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// editRequestMessage rewrites a posted review message out of band, used when
// the acting interaction already got another response.
func (b *Bot) editRequestMessage(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if channelID == "" || messageID == "" {
		return
	}
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		b.logger.Warn("request message edit failed",
			"channel_id", channelID,
			"message_id", messageID,
			"error", err,
		)
	}
}

func messageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
