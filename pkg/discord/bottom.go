package discord

import (
	"errors"
	"fmt"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/bwmarrin/discordgo"
)

// refreshBottom replaces the channel's pinned interactive message: delete
// the remembered one, post the new one, remember it.
func (b *Bot) refreshBottom(channelID string, msg *discordgo.MessageSend) error {
	if channelID == "" {
		return nil
	}
	if oldID, err := b.store.BottomMessage(channelID); err == nil {
		// Message may be gone already; only care about posting the new one.
		_ = b.session.ChannelMessageDelete(channelID, oldID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	posted, err := b.session.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return err
	}
	return b.store.SaveBottomMessage(channelID, posted.ID)
}

func (b *Bot) refreshRoleGetting() error {
	return b.refreshBottom(b.cfg.Channels.RoleGetting, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "📥 Получение ролей",
			Color: 0x3498DB,
			Description: "Выберите подходящую заявку. Заявки рассматриваются " +
				"командованием в порядке очереди.",
		}},
		Components: []discordgo.MessageComponent{row(
			button("Вступление в армию", discordgo.PrimaryButton,
				ControlID{Kind: "role", Action: "open", Extra: string(models.RoleKindArmy)}),
			button("Доступ к снабжению", discordgo.SecondaryButton,
				ControlID{Kind: "role", Action: "open", Extra: string(models.RoleKindSupplyAccess)}),
			button("Госслужащий", discordgo.SecondaryButton,
				ControlID{Kind: "role", Action: "open", Extra: string(models.RoleKindGovEmployee)}),
		)},
	})
}

func (b *Bot) refreshReinstatement() error {
	return b.refreshBottom(b.cfg.Channels.Reinstatement, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "♻️ Восстановление на службе",
			Color: 0x3498DB,
			Description: "Для восстановления в звании подайте заявку и приложите " +
				"документы. Восстановление доступно только уволенным военнослужащим.",
		}},
		Components: []discordgo.MessageComponent{row(
			button("Подать заявку", discordgo.PrimaryButton,
				ControlID{Kind: "reinstate", Action: "open"}),
		)},
	})
}

func (b *Bot) refreshDismissal() error {
	return b.refreshBottom(b.cfg.Channels.Dismissal, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "📤 Увольнение со службы",
			Color: 0x3498DB,
			Description: "Рапорт рассматривается командованием. Увольнение ранее " +
				fmt.Sprintf("%d дней службы влечёт внесение в черный список.", b.cfg.MinServiceDays),
		}},
		Components: []discordgo.MessageComponent{row(
			button("ПСЖ", discordgo.DangerButton,
				ControlID{Kind: "dismiss", Action: "open", Extra: string(models.DismissalPSZh)}),
			button("Перевод в другую структуру", discordgo.SecondaryButton,
				ControlID{Kind: "dismiss", Action: "open", Extra: string(models.DismissalTransfer)}),
		)},
	})
}

func (b *Bot) refreshTimeoff() error {
	return b.refreshBottom(b.cfg.Channels.Timeoff, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "🏖️ Отгулы",
			Color: 0x3498DB,
			Description: "Отгул освобождает от обязательной активности. " +
				"Один одобренный отгул в сутки.",
		}},
		Components: []discordgo.MessageComponent{row(
			button("Запросить отгул", discordgo.PrimaryButton,
				ControlID{Kind: "timeoff", Action: "open"}),
		)},
	})
}

func (b *Bot) refreshStorage() error {
	desc := "Соберите корзину и отправьте запрос. Повторный запрос доступен " +
		"через 3 часа после выдачи."
	if b.cfg.Supply.InfoLink != "" {
		desc += "\n[Нормы выдачи](" + b.cfg.Supply.InfoLink + ")"
	}
	return b.refreshBottom(b.cfg.Channels.StorageRequests, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📦 Склад снабжения",
			Color:       0x3498DB,
			Description: desc,
		}},
		Components: []discordgo.MessageComponent{row(
			button("Создать запрос", discordgo.PrimaryButton,
				ControlID{Kind: "supply", Action: "open"}),
		)},
	})
}

// refreshTransferChannels posts an apply button into every division's
// transfer channel; the division id rides in the control id.
func (b *Bot) refreshTransferChannels() error {
	for _, div := range b.registry.All() {
		if div.TransferChannelID == "" {
			continue
		}
		desc := div.Description
		if desc == "" {
			desc = "Подайте заявку на перевод в подразделение."
		}
		err := b.refreshBottom(div.TransferChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       fmt.Sprintf("%s %s — перевод", div.Emoji, div.Name),
				Color:       0x3498DB,
				Description: desc,
			}},
			Components: []discordgo.MessageComponent{row(
				button("Подать заявку", discordgo.PrimaryButton,
					ControlID{Kind: "transfer", Action: "apply", RequestID: int64(div.ID)}),
			)},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) refreshAllBottoms() {
	for name, fn := range map[string]func() error{
		"role_getting":  b.refreshRoleGetting,
		"reinstatement": b.refreshReinstatement,
		"dismissal":     b.refreshDismissal,
		"timeoff":       b.refreshTimeoff,
		"storage":       b.refreshStorage,
		"transfers":     b.refreshTransferChannels,
	} {
		if err := fn(); err != nil {
			b.logger.Error("bottom message refresh failed",
				"component", "discord",
				"channel", name,
				"error", err,
			)
		}
	}
}
