package discord

import (
	"fmt"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerStaticHandlers() {
	b.modals["static:form"] = b.staticSubmit
}

// staticSubmit stores a self-reported static id and logs it for manual
// verification. The member then repeats the action that asked for it.
func (b *Bot) staticSubmit(i *discordgo.InteractionCreate, c ControlID) error {
	userID := interactionUserID(i)
	m, err := b.engine.SetStatic(userID, modalValue(i.ModalSubmitData(), "static"))
	if err != nil {
		return err
	}
	if b.cfg.Channels.StaticLog != "" {
		_, err := b.session.ChannelMessageSend(b.cfg.Channels.StaticLog,
			fmt.Sprintf("📝 <@%s> указал статик `%s`", userID, models.FormatStatic(m.Static)))
		if err != nil {
			b.logger.Warn("static log post failed", "error", err)
		}
	}
	b.ephemeral(i, "✅ Статик сохранён. Повторите действие ещё раз.")
	return nil
}
