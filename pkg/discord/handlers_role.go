package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerRoleHandlers() {
	b.components["role:open"] = b.roleOpenForm
	b.components["role:approve"] = b.roleReview(true)
	b.components["role:reject"] = b.roleReview(false)
	b.modals["role:form"] = b.roleSubmitForm
}

func (b *Bot) roleOpenForm(i *discordgo.InteractionCreate, c ControlID) error {
	return b.respondModal(i, roleFormModal(models.RoleKind(c.Extra)))
}

func parseStatic(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !global.StaticRegex.MatchString(raw) {
		return 0, fmt.Errorf("bad static %q", raw)
	}
	return strconv.ParseInt(strings.ReplaceAll(raw, "-", ""), 10, 64)
}

func (b *Bot) roleSubmitForm(i *discordgo.InteractionCreate, c ControlID) error {
	data := i.ModalSubmitData()
	static, err := parseStatic(modalValue(data, "static"))
	if err != nil {
		b.ephemeral(i, "Статик должен быть в формате 123-456.")
		return nil
	}
	req, err := b.engine.SubmitRoleGrant(lifecycleRoleSubmission(i, c, data, static))
	if err != nil {
		return err
	}
	msgID, err := b.postReview(b.cfg.Channels.RoleGetting, "",
		roleRequestEmbed(req), roleReviewRow(req.ID))
	if err == nil {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
	b.ephemeral(i, fmt.Sprintf("✅ Заявка #%d отправлена на рассмотрение.", req.ID))
	return nil
}

func lifecycleRoleSubmission(i *discordgo.InteractionCreate, c ControlID, data discordgo.ModalSubmitInteractionData, static int64) (sub lifecycle.RoleGrantSubmission) {
	sub.UserID = interactionUserID(i)
	sub.Kind = models.RoleKind(c.Extra)
	sub.FullName = modalValue(data, "full_name")
	sub.Static = static
	sub.Faction = modalValue(data, "faction")
	sub.RankPosition = modalValue(data, "rank_position")
	sub.Purpose = modalValue(data, "purpose")
	sub.CertificateLink = modalValue(data, "certificate")
	return sub
}

func (b *Bot) roleReview(approve bool) controlHandler {
	return func(i *discordgo.InteractionCreate, c ControlID) error {
		req, err := b.engine.ReviewRoleGrant(interactionUserID(i), c.RequestID, approve)
		if req != nil {
			if updateErr := b.updateSource(i, roleRequestEmbed(req),
				[]discordgo.MessageComponent{}); updateErr != nil {
				b.logger.Warn("source update failed", "error", updateErr)
			}
		}
		return err
	}
}

// postReview posts a request embed with its controls to a review channel.
func (b *Bot) postReview(channelID, content string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (string, error) {
	if channelID == "" {
		return "", nil
	}
	msg, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		b.logger.Error("review post failed", "channel_id", channelID, "error", err)
		return "", err
	}
	return msg.ID, nil
}
