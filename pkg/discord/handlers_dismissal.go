package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerDismissalHandlers() {
	b.components["dismiss:open"] = b.dismissalOpenForm
	b.components["dismiss:approve"] = b.dismissalApprove
	b.components["dismiss:reject"] = b.dismissalReject
	b.components["dismiss:cancel"] = b.dismissalCancel
	b.modals["dismiss:form"] = b.dismissalSubmitForm
}

func (b *Bot) dismissalOpenForm(i *discordgo.InteractionCreate, c ControlID) error {
	return b.respondModal(i, dismissalFormModal(models.DismissalType(c.Extra)))
}

func (b *Bot) dismissalSubmitForm(i *discordgo.InteractionCreate, c ControlID) error {
	var liveRoles []string
	if i.Member != nil {
		liveRoles = i.Member.Roles
	}
	req, err := b.engine.SubmitDismissal(
		interactionUserID(i),
		models.DismissalType(c.Extra),
		modalValue(i.ModalSubmitData(), "reason"),
		liveRoles,
	)
	if errors.Is(err, lifecycle.ErrStaticRequired) {
		return b.respondModal(i, staticModal(ControlID{
			Kind: "dismiss", Action: "open", Extra: c.Extra,
		}))
	}
	if err != nil {
		return err
	}
	b.postDismissalReview(req, interactionUserID(i))
	b.ephemeral(i, fmt.Sprintf("✅ Рапорт #%d отправлен на рассмотрение.", req.ID))
	return nil
}

// postDismissalReview posts the report, pinging the officers of the member's
// division, or HQ when the division has no posts to ping.
func (b *Bot) postDismissalReview(req *models.DismissalRequest, userID string) {
	mentions := []string{"<@" + userID + ">"}
	var div *models.Division
	var ok bool
	if req.DivisionID != nil {
		div, ok = b.registry.Get(*req.DivisionID)
	}
	if !ok || len(div.Positions) == 0 {
		div, ok = b.registry.GetByAbbreviation(b.cfg.HQAbbreviation)
	}
	if ok && div != nil {
		for _, r := range div.OfficerRoleIDs(models.PrivilegeOfficer) {
			mentions = append(mentions, "<@&"+r+">")
		}
	}
	withCancel := req.Type != models.DismissalAuto
	msgID, err := b.postReview(b.cfg.Channels.Dismissal,
		"||"+strings.Join(mentions, "")+"||",
		dismissalEmbed(b.cfg, b.registry, req),
		dismissalReviewRow(req.ID, withCancel))
	if err == nil && msgID != "" {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
}

func (b *Bot) dismissalApprove(i *discordgo.InteractionCreate, c ControlID) error {
	evidence := ""
	if i.Message != nil {
		evidence = messageLink(b.cfg.GuildID, i.ChannelID, i.Message.ID)
	}
	outcome, err := b.engine.ApproveDismissal(interactionUserID(i), c.RequestID, evidence)
	if outcome != nil && outcome.Request != nil {
		if updateErr := b.updateSource(i, dismissalEmbed(b.cfg, b.registry, outcome.Request),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}

func (b *Bot) dismissalReject(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.RejectDismissal(interactionUserID(i), c.RequestID)
	if req != nil {
		if updateErr := b.updateSource(i, dismissalEmbed(b.cfg, b.registry, req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}

func (b *Bot) dismissalCancel(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.CancelDismissal(interactionUserID(i), c.RequestID)
	if req != nil {
		if updateErr := b.updateSource(i, dismissalEmbed(b.cfg, b.registry, req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}
