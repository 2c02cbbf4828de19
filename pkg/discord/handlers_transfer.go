package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerTransferHandlers() {
	b.components["transfer:apply"] = b.transferOpenForm
	b.components["transfer:old_approve"] = b.transferOldApprove
	b.components["transfer:new_approve"] = b.transferNewApprove
	b.components["transfer:reject"] = b.transferOpenReject
	b.modals["transfer:form"] = b.transferSubmitForm
	b.modals["transfer:reject_form"] = b.transferReject
}

func (b *Bot) transferOpenForm(i *discordgo.InteractionCreate, c ControlID) error {
	// The apply button carries the destination division id.
	return b.respondModal(i, transferFormModal(c.RequestID))
}

func (b *Bot) transferSubmitForm(i *discordgo.InteractionCreate, c ControlID) error {
	data := i.ModalSubmitData()
	req, err := b.engine.SubmitTransfer(lifecycle.TransferSubmission{
		UserID:        interactionUserID(i),
		NewDivisionID: int(c.RequestID),
		NameAge:       modalValue(data, "name_age"),
		Timezone:      modalValue(data, "timezone"),
		OnlineTime:    modalValue(data, "online"),
		Motivation:    modalValue(data, "motivation"),
	})
	if errors.Is(err, lifecycle.ErrStaticRequired) {
		return b.respondModal(i, staticModal(ControlID{
			Kind: "transfer", Action: "apply", RequestID: c.RequestID,
		}))
	}
	if err != nil {
		return err
	}
	b.postTransferReview(req)
	b.ephemeral(i, fmt.Sprintf("✅ Заявка на перевод #%d отправлена.", req.ID))
	return nil
}

// postTransferReview posts the request into the channel of whichever
// division currently owns the review, pinging its officers.
func (b *Bot) postTransferReview(req *models.TransferRequest) {
	var channelID string
	var mentions []string
	var components []discordgo.MessageComponent
	if req.Status == models.StatusOldDivisionReview {
		components = transferOldReviewRow(req.ID)
		if req.OldDivisionID != nil {
			if div, ok := b.registry.Get(*req.OldDivisionID); ok {
				channelID = div.TransferChannelID
				for _, r := range div.OfficerRoleIDs(models.PrivilegeOfficer) {
					mentions = append(mentions, "<@&"+r+">")
				}
			}
		}
	} else {
		components = transferNewReviewRow(req.ID)
		if div, ok := b.registry.Get(req.NewDivisionID); ok {
			channelID = div.TransferChannelID
			for _, r := range div.OfficerRoleIDs(models.PrivilegeOfficer) {
				mentions = append(mentions, "<@&"+r+">")
			}
		}
	}
	content := ""
	if len(mentions) > 0 {
		content = "||" + strings.Join(mentions, "") + "||"
	}
	msgID, err := b.postReview(channelID, content, transferEmbed(b.registry, req), components)
	if err == nil && msgID != "" {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
}

func (b *Bot) transferOldApprove(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.ApproveTransferOld(interactionUserID(i), c.RequestID)
	if err != nil {
		return err
	}
	// Close out the old division's message and post for the new division.
	if updateErr := b.updateSource(i, transferEmbed(b.registry, req),
		[]discordgo.MessageComponent{}); updateErr != nil {
		b.logger.Warn("source update failed", "error", updateErr)
	}
	b.postTransferReview(req)
	return nil
}

func (b *Bot) transferNewApprove(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.ApproveTransferNew(interactionUserID(i), c.RequestID)
	if req != nil {
		if updateErr := b.updateSource(i, transferEmbed(b.registry, req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}

func (b *Bot) transferOpenReject(i *discordgo.InteractionCreate, c ControlID) error {
	return b.respondModal(i, transferRejectModal(c.RequestID))
}

func (b *Bot) transferReject(i *discordgo.InteractionCreate, c ControlID) error {
	reason := modalValue(i.ModalSubmitData(), "reason")
	req, err := b.engine.RejectTransfer(interactionUserID(i), c.RequestID, reason)
	if err != nil {
		return err
	}
	b.editRequestMessageForTransfer(req)
	b.ephemeral(i, fmt.Sprintf("Заявка #%d отклонена.", req.ID))
	return nil
}

func (b *Bot) editRequestMessageForTransfer(req *models.TransferRequest) {
	var channelID string
	divID := req.NewDivisionID
	if req.Status == models.StatusRejected && req.NewReviewerID == "" && req.OldDivisionID != nil {
		divID = *req.OldDivisionID
	}
	if div, ok := b.registry.Get(divID); ok {
		channelID = div.TransferChannelID
	}
	b.editRequestMessage(channelID, req.MessageID,
		transferEmbed(b.registry, req), []discordgo.MessageComponent{})
}
