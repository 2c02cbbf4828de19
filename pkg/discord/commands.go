package discord

import (
	"fmt"
	"strings"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/bwmarrin/discordgo"
)

func (b *Bot) registerCommands() {
	b.commands["состав"] = b.cmdMembers
	b.commands["blacklist"] = b.cmdBlacklist
	b.commands["unblacklist"] = b.cmdUnblacklist
	b.commands["звание"] = b.cmdRank
	b.commands["подразделение"] = b.cmdDivision
	b.commands["должность"] = b.cmdPosition
	b.commands["личное-дело"] = b.cmdEdit
}

// registerApplicationCommands declares the guild slash commands. Choice
// lists are rebuilt from the live rank and division tables.
func (b *Bot) registerApplicationCommands() error {
	divisionChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, div := range b.registry.All() {
		divisionChoices = append(divisionChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  div.Name,
			Value: div.ID,
		})
	}
	rankChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for i, r := range b.cfg.Ranks {
		rankChoices = append(rankChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  r.Name,
			Value: i,
		})
	}
	userOpt := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "военнослужащий",
			Description: desc,
			Required:    true,
		}
	}
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "состав",
			Description: "Список состава подразделения",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "подразделение",
				Description: "Подразделение",
				Required:    true,
				Choices:     divisionChoices,
			}},
		},
		{
			Name:        "blacklist",
			Description: "Добавить военнослужащего в общий черный список",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Кого внести в черный список"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "дни",
					Description: "Срок в днях, 0 — бессрочно",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "причина",
					Description: "Причина",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "доказательства",
					Description: "Ссылки на доказательства",
					Required:    true,
				},
			},
		},
		{
			Name:        "unblacklist",
			Description: "Снять военнослужащего с черного списка",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Кого снять с черного списка"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "причина",
					Description: "Причина снятия",
					Required:    true,
				},
			},
		},
		{
			Name:        "звание",
			Description: "Изменить звание военнослужащего",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Военнослужащий"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "звание",
					Description: "Новое звание",
					Required:    true,
					Choices:     rankChoices,
				},
			},
		},
		{
			Name:        "подразделение",
			Description: "Перевести военнослужащего в подразделение",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Военнослужащий"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "подразделение",
					Description: "Подразделение",
					Required:    true,
					Choices:     divisionChoices,
				},
			},
		},
		{
			Name:        "должность",
			Description: "Назначить должность в подразделении",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Военнослужащий"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "должность",
					Description: "Название должности, пусто — снять",
					Required:    false,
				},
			},
		},
		{
			Name:        "личное-дело",
			Description: "Изменить имя или статик в личном деле",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Военнослужащий"),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "имя",
					Description: "Имя Фамилия",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "статик",
					Description: "Статик в формате 123-456",
					Required:    false,
				},
			},
		},
	}
	for _, cmd := range commands {
		if _, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID, b.cfg.GuildID, cmd); err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		out[opt.Name] = opt
	}
	return out
}

func (b *Bot) cmdMembers(i *discordgo.InteractionCreate) error {
	opts := options(i)
	divisionID := int(opts["подразделение"].IntValue())
	members, err := b.engine.DivisionRoster(interactionUserID(i), divisionID)
	if err != nil {
		return err
	}
	div, _ := b.registry.Get(divisionID)
	var sb strings.Builder
	for n, m := range members {
		pos := ""
		if m.Position != nil {
			pos = " | " + *m.Position
		}
		fmt.Fprintf(&sb, "%d. <@%s> — %s | %s%s\n",
			n+1, m.DiscordID, b.cfg.RankName(*m.Rank), m.FullName(), pos)
	}
	if sb.Len() == 0 {
		sb.WriteString("_В подразделении никто не числится._")
	}
	title := "Состав"
	if div != nil {
		title = fmt.Sprintf("%s Состав «%s» (%d)", div.Emoji, div.Name, len(members))
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       title,
				Color:       0x3498DB,
				Description: truncateDescription(sb.String()),
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// truncateDescription keeps an embed description under the platform cap.
func truncateDescription(s string) string {
	const limit = 4000
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

func (b *Bot) cmdBlacklist(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	_, _, err := b.engine.BlacklistMember(
		interactionUserID(i),
		target.ID,
		int(opts["дни"].IntValue()),
		opts["причина"].StringValue(),
		opts["доказательства"].StringValue(),
	)
	if err != nil {
		return err
	}
	b.ephemeral(i, fmt.Sprintf("Гражданин <@%s> добавлен в черный список.", target.ID))
	return nil
}

func (b *Bot) cmdUnblacklist(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	_, _, err := b.engine.UnblacklistMember(
		interactionUserID(i), target.ID, opts["причина"].StringValue())
	if err != nil {
		return err
	}
	b.ephemeral(i, fmt.Sprintf("Гражданин <@%s> снят с черного списка.", target.ID))
	return nil
}

func (b *Bot) cmdRank(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	m, err := b.engine.SetRank(interactionUserID(i), target.ID, int(opts["звание"].IntValue()))
	if err != nil {
		return err
	}
	b.ephemeral(i, fmt.Sprintf("Звание <@%s> изменено на «%s».",
		target.ID, b.cfg.RankName(*m.Rank)))
	return nil
}

func (b *Bot) cmdDivision(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	m, err := b.engine.SetDivision(
		interactionUserID(i), target.ID, int(opts["подразделение"].IntValue()))
	if err != nil {
		return err
	}
	b.ephemeral(i, fmt.Sprintf("<@%s> переведён в «%s».",
		target.ID, b.registry.Name(m.Division)))
	return nil
}

func (b *Bot) cmdPosition(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	position := ""
	if opt, ok := opts["должность"]; ok {
		position = opt.StringValue()
	}
	m, err := b.engine.SetPosition(interactionUserID(i), target.ID, position)
	if err != nil {
		return err
	}
	if m.Position == nil {
		b.ephemeral(i, fmt.Sprintf("Должность <@%s> снята.", target.ID))
	} else {
		b.ephemeral(i, fmt.Sprintf("<@%s> назначен на должность «%s».", target.ID, *m.Position))
	}
	return nil
}

func (b *Bot) cmdEdit(i *discordgo.InteractionCreate) error {
	opts := options(i)
	target := opts["военнослужащий"].UserValue(b.session)
	name := ""
	if opt, ok := opts["имя"]; ok {
		name = opt.StringValue()
	}
	var static *int64
	if opt, ok := opts["статик"]; ok {
		value, err := parseStatic(opt.StringValue())
		if err != nil {
			b.ephemeral(i, "Статик должен быть в формате 123-456.")
			return nil
		}
		static = &value
	}
	m, err := b.engine.EditRecord(interactionUserID(i), target.ID, name, static)
	if err != nil {
		return err
	}
	b.ephemeral(i, fmt.Sprintf("Личное дело обновлено: %s | %s.",
		m.FullName(), models.FormatStatic(m.Static)))
	return nil
}
