package discord

import (
	"strings"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/bwmarrin/discordgo"
)

func textInput(id, label, placeholder string, required bool, paragraph bool) discordgo.ActionsRow {
	style := discordgo.TextInputShort
	if paragraph {
		style = discordgo.TextInputParagraph
	}
	return row(discordgo.TextInput{
		CustomID:    id,
		Label:       label,
		Style:       style,
		Placeholder: placeholder,
		Required:    required,
		MaxLength:   512,
	})
}

// modalValue digs a text input value out of submitted modal components.
func modalValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, c := range data.Components {
		ar, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range ar.Components {
			if ti, ok := inner.(*discordgo.TextInput); ok && ti.CustomID == id {
				return strings.TrimSpace(ti.Value)
			}
		}
	}
	return ""
}

func roleFormModal(kind models.RoleKind) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "role", Action: "form", Extra: string(kind)}.String(),
		Title:    roleKindTitle(kind),
		Components: []discordgo.MessageComponent{
			textInput("full_name", "Имя Фамилия", "Иван Иванов", true, false),
			textInput("static", "Статик", "123-456", true, false),
		},
	}
	if kind == models.RoleKindArmy {
		data.Components = append(data.Components,
			textInput("purpose", "Цель вступления", "", true, true))
	} else {
		data.Components = append(data.Components,
			textInput("faction", "Фракция", "МВД", true, false),
			textInput("rank_position", "Звание и должность", "", true, false),
			textInput("certificate", "Подтверждение (ссылка)", "", false, false))
	}
	return data
}

func transferFormModal(divisionID int64) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "transfer", Action: "form", RequestID: divisionID}.String(),
		Title:    "Заявка на перевод",
		Components: []discordgo.MessageComponent{
			textInput("name_age", "Имя, возраст (OOC)", "", true, false),
			textInput("timezone", "Часовой пояс", "МСК+2", true, false),
			textInput("online", "Онлайн в день (прайм)", "", true, false),
			textInput("motivation", "Почему именно это подразделение?", "", true, true),
		},
	}
}

func dismissalFormModal(dtype models.DismissalType) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "dismiss", Action: "form", Extra: string(dtype)}.String(),
		Title:    "Рапорт на увольнение",
		Components: []discordgo.MessageComponent{
			textInput("reason", "Причина увольнения", "", true, true),
		},
	}
}

func reinstatementFormModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "reinstate", Action: "form"}.String(),
		Title:    "Заявка на восстановление",
		Components: []discordgo.MessageComponent{
			textInput("full_name", "Имя Фамилия", "Иван Иванов", true, false),
			textInput("documents", "Документы (ссылка)", "", true, false),
			textInput("army_pass", "Военный билет (ссылка)", "", true, false),
		},
	}
}

func timeoffFormModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "timeoff", Action: "form"}.String(),
		Title:    "Запрос отгула",
		Components: []discordgo.MessageComponent{
			textInput("period", "Период отгула", "25.08 - 27.08", true, false),
			textInput("reason", "Причина", "", true, true),
		},
	}
}

func transferRejectModal(id int64) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "transfer", Action: "reject_form", RequestID: id}.String(),
		Title:    "Отказ по заявке на перевод",
		Components: []discordgo.MessageComponent{
			textInput("reason", "Причина отказа", "", true, true),
		},
	}
}

// staticModal asks the member to self-report their static id; retry points
// back at the original control via Extra.
func staticModal(retry ControlID) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "static", Action: "form", Extra: retry.String()}.String(),
		Title:    "Укажите ваш статик",
		Components: []discordgo.MessageComponent{
			textInput("static", "Статик", "123-456", true, false),
		},
	}
}

func supplyQuantityModal(id int64, item string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: ControlID{Kind: "supply", Action: "quantity", RequestID: id, Extra: item}.String(),
		Title:    "Количество",
		Components: []discordgo.MessageComponent{
			textInput("quantity", item, "0 — убрать из корзины", true, false),
		},
	}
}
