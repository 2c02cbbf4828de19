package discord

import (
	"errors"
	"fmt"

	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerTimeoffHandlers() {
	b.components["timeoff:open"] = b.timeoffOpenForm
	b.components["timeoff:approve"] = b.timeoffReview(true)
	b.components["timeoff:reject"] = b.timeoffReview(false)
	b.components["timeoff:cancel"] = b.timeoffCancel
	b.modals["timeoff:form"] = b.timeoffSubmitForm
}

func (b *Bot) timeoffOpenForm(i *discordgo.InteractionCreate, c ControlID) error {
	return b.respondModal(i, timeoffFormModal())
}

func (b *Bot) timeoffSubmitForm(i *discordgo.InteractionCreate, c ControlID) error {
	data := i.ModalSubmitData()
	req, err := b.engine.SubmitTimeoff(
		interactionUserID(i),
		modalValue(data, "period"),
		modalValue(data, "reason"),
	)
	if errors.Is(err, lifecycle.ErrStaticRequired) {
		return b.respondModal(i, staticModal(ControlID{Kind: "timeoff", Action: "open"}))
	}
	if err != nil {
		return err
	}
	msgID, postErr := b.postReview(b.cfg.Channels.Timeoff,
		"||<@"+req.UserID+">||",
		timeoffEmbed(req), timeoffReviewRow(req.ID))
	if postErr == nil && msgID != "" {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
	b.ephemeral(i, fmt.Sprintf("✅ Запрос отгула #%d отправлен.", req.ID))
	return nil
}

func (b *Bot) timeoffReview(approve bool) controlHandler {
	return func(i *discordgo.InteractionCreate, c ControlID) error {
		req, err := b.engine.ReviewTimeoff(interactionUserID(i), c.RequestID, approve)
		if req != nil {
			if updateErr := b.updateSource(i, timeoffEmbed(req),
				[]discordgo.MessageComponent{}); updateErr != nil {
				b.logger.Warn("source update failed", "error", updateErr)
			}
		}
		return err
	}
}

func (b *Bot) timeoffCancel(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.CancelTimeoff(interactionUserID(i), c.RequestID)
	if req != nil {
		if updateErr := b.updateSource(i, timeoffEmbed(req),
			[]discordgo.MessageComponent{}); updateErr != nil {
			b.logger.Warn("source update failed", "error", updateErr)
		}
	}
	return err
}
