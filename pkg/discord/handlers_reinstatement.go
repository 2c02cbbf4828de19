package discord

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerReinstatementHandlers() {
	b.components["reinstate:open"] = b.reinstatementOpenForm
	b.components["reinstate:accept"] = b.reinstatementAccept
	b.components["reinstate:reject"] = b.reinstatementReject
	b.components["reinstate:rank"] = b.reinstatementRank
	b.modals["reinstate:form"] = b.reinstatementSubmitForm
}

func (b *Bot) reinstatementOpenForm(i *discordgo.InteractionCreate, c ControlID) error {
	return b.respondModal(i, reinstatementFormModal())
}

func (b *Bot) reinstatementSubmitForm(i *discordgo.InteractionCreate, c ControlID) error {
	data := i.ModalSubmitData()
	req, err := b.engine.SubmitReinstatement(lifecycle.ReinstatementSubmission{
		UserID:        interactionUserID(i),
		FullName:      modalValue(data, "full_name"),
		DocumentsLink: modalValue(data, "documents"),
		ArmyPassLink:  modalValue(data, "army_pass"),
	})
	if errors.Is(err, lifecycle.ErrStaticRequired) {
		return b.respondModal(i, staticModal(ControlID{Kind: "reinstate", Action: "open"}))
	}
	if err != nil {
		return err
	}
	msgID, postErr := b.postReview(b.cfg.Channels.Reinstatement,
		"||<@"+req.UserID+">||",
		reinstatementEmbed(b.cfg, req),
		reinstatementPendingRow(req.ID))
	if postErr == nil && msgID != "" {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
	b.ephemeral(i, fmt.Sprintf("✅ Заявка на восстановление #%d отправлена.", req.ID))
	return nil
}

func (b *Bot) reinstatementAccept(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.AcceptReinstatement(interactionUserID(i), c.RequestID)
	if err != nil {
		return err
	}
	return b.updateSource(i, reinstatementEmbed(b.cfg, req),
		reinstatementAcceptedRows(b.cfg, req.ID))
}

func (b *Bot) reinstatementRank(i *discordgo.InteractionCreate, c ControlID) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}
	rank, err := strconv.Atoi(values[0])
	if err != nil {
		return err
	}
	req, err := b.engine.FinalizeReinstatement(interactionUserID(i), c.RequestID, rank)
	if req != nil {
		if updateErr := b.updateSource(i, reinstatementEmbed(b.cfg, req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}

func (b *Bot) reinstatementReject(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.RejectReinstatement(interactionUserID(i), c.RequestID)
	if req != nil {
		if updateErr := b.updateSource(i, reinstatementEmbed(b.cfg, req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}
