package discord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/lifecycle"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerSupplyHandlers() {
	b.components["supply:open"] = b.supplyOpen
	b.components["supply:category"] = b.supplyCategory
	b.components["supply:item"] = b.supplyItem
	b.components["supply:submit"] = b.supplySubmit
	b.components["supply:clear"] = b.supplyClear
	b.components["supply:delete"] = b.supplyDelete
	b.components["supply:approve"] = b.supplyReview(true)
	b.components["supply:reject"] = b.supplyReview(false)
	b.components["supply:edit"] = b.supplyEdit
	b.modals["supply:quantity"] = b.supplyQuantity
}

// supplyOpen starts (or resumes) a cart and shows the private editor.
func (b *Bot) supplyOpen(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.CreateSupplyDraft(interactionUserID(i))
	if errors.Is(err, lifecycle.ErrStaticRequired) {
		return b.respondModal(i, staticModal(ControlID{Kind: "supply", Action: "open"}))
	}
	if err != nil {
		return err
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{supplyEmbed(b.cfg, req)},
			Components: supplyDraftRows(b.cfg, req.ID),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// supplyCategory expands the cart editor with the chosen category's items.
func (b *Bot) supplyCategory(i *discordgo.InteractionCreate, c ControlID) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}
	var cat *global.SupplyCategory
	for _, candidate := range b.cfg.Supply.Categories {
		if candidate.Name == values[0] {
			candidate := candidate
			cat = &candidate
			break
		}
	}
	if cat == nil {
		return fmt.Errorf("unknown supply category %q", values[0])
	}
	req, err := b.store.SupplyRequest(c.RequestID)
	if err != nil {
		return err
	}
	components := append(supplyDraftRows(b.cfg, req.ID), supplyItemRows(*cat, req.ID)...)
	return b.updateSourceMulti(i, supplyEmbed(b.cfg, req), components)
}

func (b *Bot) supplyItem(i *discordgo.InteractionCreate, c ControlID) error {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}
	return b.respondModal(i, supplyQuantityModal(c.RequestID, values[0]))
}

func (b *Bot) supplyQuantity(i *discordgo.InteractionCreate, c ControlID) error {
	raw := modalValue(i.ModalSubmitData(), "quantity")
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 0 {
		b.ephemeral(i, "Введите неотрицательное число.")
		return nil
	}
	req, err := b.engine.SetSupplyItem(interactionUserID(i), c.RequestID, c.Extra, qty)
	if err != nil {
		return err
	}
	if req.Status == models.StatusPending {
		// Command edited a submitted requisition; refresh the review post.
		b.editRequestMessage(b.cfg.Channels.StorageRequests, req.MessageID,
			supplyEmbed(b.cfg, req), supplyReviewRows(req.ID))
		b.ephemeral(i, fmt.Sprintf("Запрос #%d обновлён.", req.ID))
		return nil
	}
	return b.updateSourceMulti(i, supplyEmbed(b.cfg, req), supplyDraftRows(b.cfg, req.ID))
}

func (b *Bot) supplySubmit(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.SubmitSupply(interactionUserID(i), c.RequestID)
	if err != nil {
		return err
	}
	msgID, postErr := b.postReview(b.cfg.Channels.StorageRequests,
		"||<@"+req.UserID+">||",
		supplyEmbed(b.cfg, req), supplyReviewRows(req.ID))
	if postErr == nil && msgID != "" {
		req.MessageID = msgID
		if err := b.store.Save(req); err != nil {
			b.logger.Warn("message id save failed", "request_id", req.ID, "error", err)
		}
	}
	return b.updateSourceMulti(i, supplyEmbed(b.cfg, req), []discordgo.MessageComponent{})
}

func (b *Bot) supplyClear(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.engine.ClearSupplyItems(interactionUserID(i), c.RequestID)
	if err != nil {
		return err
	}
	return b.updateSourceMulti(i, supplyEmbed(b.cfg, req), supplyDraftRows(b.cfg, req.ID))
}

func (b *Bot) supplyDelete(i *discordgo.InteractionCreate, c ControlID) error {
	if err := b.engine.DeleteSupplyDraft(interactionUserID(i), c.RequestID); err != nil {
		return err
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Черновик удалён.",
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
}

func (b *Bot) supplyReview(approve bool) controlHandler {
	return func(i *discordgo.InteractionCreate, c ControlID) error {
		req, err := b.engine.ReviewSupply(interactionUserID(i), c.RequestID, approve)
		if req != nil {
			if updateErr := b.updateSource(i, supplyEmbed(b.cfg, req),
				[]discordgo.MessageComponent{}); updateErr != nil {
				b.logger.Warn("source update failed", "error", updateErr)
			}
		}
		return err
	}
}

// supplyEdit gives command a private editor over a pending requisition.
func (b *Bot) supplyEdit(i *discordgo.InteractionCreate, c ControlID) error {
	req, err := b.store.SupplyRequest(c.RequestID)
	if err != nil {
		return err
	}
	if req.Status != models.StatusPending {
		return lifecycle.ErrAlreadyHandled
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{supplyEmbed(b.cfg, req)},
			Components: []discordgo.MessageComponent{supplyDraftRows(b.cfg, req.ID)[0]},
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

// updateSourceMulti edits the source message with an arbitrary component set.
func (b *Bot) updateSourceMulti(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}
