package discord

import (
	"fmt"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/bwmarrin/discordgo"
)

func button(label string, style discordgo.ButtonStyle, id ControlID) discordgo.Button {
	return discordgo.Button{Label: label, Style: style, CustomID: id.String()}
}

func row(components ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: components}
}

// roleReviewRow is the approve/reject pair under a role grant application.
func roleReviewRow(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Одобрить", discordgo.SuccessButton, ControlID{Kind: "role", Action: "approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "role", Action: "reject", RequestID: id}),
	)}
}

func transferOldReviewRow(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Одобрить перевод", discordgo.SuccessButton, ControlID{Kind: "transfer", Action: "old_approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "transfer", Action: "reject", RequestID: id}),
	)}
}

func transferNewReviewRow(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Принять в подразделение", discordgo.SuccessButton, ControlID{Kind: "transfer", Action: "new_approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "transfer", Action: "reject", RequestID: id}),
	)}
}

func dismissalReviewRow(id int64, withCancel bool) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		button("Одобрить", discordgo.SuccessButton, ControlID{Kind: "dismiss", Action: "approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "dismiss", Action: "reject", RequestID: id}),
	}
	if withCancel {
		buttons = append(buttons,
			button("Отозвать рапорт", discordgo.SecondaryButton, ControlID{Kind: "dismiss", Action: "cancel", RequestID: id}))
	}
	return []discordgo.MessageComponent{row(buttons...)}
}

func reinstatementPendingRow(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Принять", discordgo.SuccessButton, ControlID{Kind: "reinstate", Action: "accept", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "reinstate", Action: "reject", RequestID: id}),
	)}
}

// reinstatementAcceptedRows shows the rank select for the final grant.
func reinstatementAcceptedRows(cfg *global.Config, id int64) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0,
		cfg.ReinstatementMaxRank-cfg.ReinstatementMinRank+1)
	for i := cfg.ReinstatementMinRank; i <= cfg.ReinstatementMaxRank && i < len(cfg.Ranks); i++ {
		options = append(options, discordgo.SelectMenuOption{
			Label: cfg.Ranks[i].Name,
			Value: fmt.Sprintf("%d", i),
		})
	}
	return []discordgo.MessageComponent{
		row(discordgo.SelectMenu{
			CustomID:    ControlID{Kind: "reinstate", Action: "rank", RequestID: id}.String(),
			Placeholder: "Выберите звание для восстановления",
			Options:     options,
		}),
		row(
			button("Отклонить", discordgo.DangerButton, ControlID{Kind: "reinstate", Action: "reject", RequestID: id}),
		),
	}
}

func timeoffReviewRow(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Одобрить", discordgo.SuccessButton, ControlID{Kind: "timeoff", Action: "approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "timeoff", Action: "reject", RequestID: id}),
		button("Отозвать", discordgo.SecondaryButton, ControlID{Kind: "timeoff", Action: "cancel", RequestID: id}),
	)}
}

// supplyDraftRows is the cart editor: a category select plus cart controls.
func supplyDraftRows(cfg *global.Config, id int64) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(cfg.Supply.Categories))
	for _, cat := range cfg.Supply.Categories {
		opt := discordgo.SelectMenuOption{Label: cat.Name, Value: cat.Name}
		if cat.Emoji != "" {
			opt.Emoji = &discordgo.ComponentEmoji{Name: cat.Emoji}
		}
		options = append(options, opt)
	}
	return []discordgo.MessageComponent{
		row(discordgo.SelectMenu{
			CustomID:    ControlID{Kind: "supply", Action: "category", RequestID: id}.String(),
			Placeholder: "Выберите категорию",
			Options:     options,
		}),
		row(
			button("Отправить запрос", discordgo.SuccessButton, ControlID{Kind: "supply", Action: "submit", RequestID: id}),
			button("Очистить корзину", discordgo.SecondaryButton, ControlID{Kind: "supply", Action: "clear", RequestID: id}),
			button("Удалить черновик", discordgo.DangerButton, ControlID{Kind: "supply", Action: "delete", RequestID: id}),
		),
	}
}

// supplyItemRows lists items of a category for the cart editor.
func supplyItemRows(cat global.SupplyCategory, id int64) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(cat.Items))
	for _, item := range cat.Items {
		options = append(options, discordgo.SelectMenuOption{Label: item, Value: item})
	}
	return []discordgo.MessageComponent{
		row(discordgo.SelectMenu{
			CustomID:    ControlID{Kind: "supply", Action: "item", RequestID: id}.String(),
			Placeholder: "Выберите предмет: " + cat.Name,
			Options:     options,
		}),
	}
}

func supplyReviewRows(id int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{row(
		button("Выдать", discordgo.SuccessButton, ControlID{Kind: "supply", Action: "approve", RequestID: id}),
		button("Отклонить", discordgo.DangerButton, ControlID{Kind: "supply", Action: "reject", RequestID: id}),
		button("Изменить", discordgo.SecondaryButton, ControlID{Kind: "supply", Action: "edit", RequestID: id}),
	)}
}

// requestComponents rebuilds the live component set for a request message
// after a state change; terminal requests get none.
func componentsFor(status models.Status, build func() []discordgo.MessageComponent) []discordgo.MessageComponent {
	if status.Terminal() {
		return []discordgo.MessageComponent{}
	}
	return build()
}
