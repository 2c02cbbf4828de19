package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/bwmarrin/discordgo"
)

func statusLine(s models.Status) string {
	emoji, text := s.Display()
	return emoji + " " + text
}

func reviewerLine(reviewerID string) string {
	if reviewerID == "" {
		return "—"
	}
	return "<@" + reviewerID + ">"
}

func discordDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

func field(name, value string) *discordgo.MessageEmbedField {
	if strings.TrimSpace(value) == "" {
		value = "—"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}

func wideField(name, value string) *discordgo.MessageEmbedField {
	f := field(name, value)
	f.Inline = false
	return f
}

func roleKindTitle(kind models.RoleKind) string {
	switch kind {
	case models.RoleKindArmy:
		return "Заявка на вступление в армию"
	case models.RoleKindSupplyAccess:
		return "Заявка на доступ к снабжению"
	default:
		return "Заявка на роль госслужащего"
	}
}

func roleRequestEmbed(req *models.RoleRequest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📥 %s #%d", roleKindTitle(req.Kind), req.ID),
		Color: req.Status.Color(),
		Fields: []*discordgo.MessageEmbedField{
			field("Кандидат", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
		},
	}
	if req.Kind == models.RoleKindArmy {
		embed.Fields = append(embed.Fields, wideField("Цель вступления", req.Purpose))
	} else {
		embed.Fields = append(embed.Fields,
			field("Фракция", req.Faction),
			field("Звание/Должность", req.RankPosition),
		)
		if req.CertificateLink != "" {
			embed.Fields = append(embed.Fields, wideField("Подтверждение", req.CertificateLink))
		}
	}
	embed.Fields = append(embed.Fields,
		wideField("Статус", statusLine(req.Status)),
		field("Рассмотрел", reviewerLine(req.ReviewerID)),
		field("Рассмотрено", discordDate(req.ReviewedAt)),
	)
	return embed
}

func transferEmbed(reg *division.Registry, req *models.TransferRequest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔁 Заявка на перевод #%d", req.ID),
		Color: req.Status.Color(),
		Fields: []*discordgo.MessageEmbedField{
			field("Военнослужащий", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
			field("Откуда", reg.Name(req.OldDivisionID)),
			field("Куда", reg.Name(&req.NewDivisionID)),
			field("Часовой пояс", req.Timezone),
			field("Имя, возраст (OOC)", req.NameAge),
			field("Онлайн", req.OnlineTime),
			wideField("Мотивация", req.Motivation),
			wideField("Статус", statusLine(req.Status)),
		},
	}
	if req.OldReviewerID != "" {
		embed.Fields = append(embed.Fields, field("Текущее подразделение", reviewerLine(req.OldReviewerID)))
	}
	if req.NewReviewerID != "" {
		embed.Fields = append(embed.Fields, field("Новое подразделение", reviewerLine(req.NewReviewerID)))
	}
	if req.RejectReason != "" {
		embed.Fields = append(embed.Fields, wideField("Причина отказа", req.RejectReason))
	}
	return embed
}

func dismissalTypeTitle(t models.DismissalType) string {
	switch t {
	case models.DismissalTransfer:
		return "Рапорт на увольнение (перевод)"
	case models.DismissalAuto:
		return "Автоматический рапорт (покинул сервер)"
	default:
		return "Рапорт на увольнение (ПСЖ)"
	}
}

func dismissalEmbed(cfg *global.Config, reg *division.Registry, req *models.DismissalRequest) *discordgo.MessageEmbed {
	pos := "—"
	if req.Position != nil {
		pos = *req.Position
	}
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📤 %s #%d", dismissalTypeTitle(req.Type), req.ID),
		Color: req.Status.Color(),
		Fields: []*discordgo.MessageEmbedField{
			field("Военнослужащий", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
			field("Звание", cfg.RankName(req.RankIndex)),
			field("Подразделение", reg.Name(req.DivisionID)),
			field("Должность", pos),
			wideField("Причина", req.Reason),
			wideField("Статус", statusLine(req.Status)),
			field("Рассмотрел", reviewerLine(req.ReviewerID)),
			field("Рассмотрено", discordDate(req.ReviewedAt)),
		},
	}
	if req.PenaltyApplied {
		embed.Fields = append(embed.Fields,
			wideField("Неустойка", "Уволен ранее минимального срока службы, внесён в ЧС."))
	}
	return embed
}

func reinstatementEmbed(cfg *global.Config, req *models.ReinstatementRequest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("♻️ Заявка на восстановление #%d", req.ID),
		Color: req.Status.Color(),
		Fields: []*discordgo.MessageEmbedField{
			field("Кандидат", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
			wideField("Документы", req.DocumentsLink),
			wideField("Военный билет", req.ArmyPassLink),
			wideField("Статус", statusLine(req.Status)),
			field("Рассмотрел", reviewerLine(req.ReviewerID)),
		},
	}
	if req.GrantedRank != nil {
		embed.Fields = append(embed.Fields, field("Звание", cfg.RankName(*req.GrantedRank)))
	}
	return embed
}

func timeoffEmbed(req *models.TimeoffRequest) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏖️ Запрос отгула #%d", req.ID),
		Color: req.Status.Color(),
		Fields: []*discordgo.MessageEmbedField{
			field("Военнослужащий", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
			field("Период", req.Period),
			wideField("Причина", req.Reason),
			wideField("Статус", statusLine(req.Status)),
			field("Рассмотрел", reviewerLine(req.ReviewerID)),
			field("Рассмотрено", discordDate(req.ReviewedAt)),
		},
	}
}

func supplyEmbed(cfg *global.Config, req *models.SupplyRequest) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, cat := range cfg.Supply.Categories {
		var lines []string
		for _, item := range cat.Items {
			if qty, ok := req.Items[item]; ok && qty > 0 {
				lines = append(lines, fmt.Sprintf("• %s — %d шт.", item, qty))
			}
		}
		if len(lines) > 0 {
			fmt.Fprintf(&sb, "%s **%s**\n%s\n", cat.Emoji, cat.Name, strings.Join(lines, "\n"))
		}
	}
	cart := sb.String()
	if cart == "" {
		cart = "_Корзина пуста_"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📦 Запрос на снабжение #%d", req.ID),
		Color:       req.Status.Color(),
		Description: cart,
		Fields: []*discordgo.MessageEmbedField{
			field("Военнослужащий", "<@"+req.UserID+">"),
			field("Имя Фамилия", req.FullName),
			field("Статик", models.FormatStatic(&req.Static)),
			wideField("Статус", statusLine(req.Status)),
			field("Рассмотрел", reviewerLine(req.ReviewerID)),
			field("Рассмотрено", discordDate(req.ReviewedAt)),
		},
	}
}
