package discord

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/bwmarrin/discordgo"
)

// channelAuditor posts audit payloads to the configured channels. Posting is
// best-effort; the decision is already persisted when we get here.
type channelAuditor struct {
	session *discordgo.Session
	cfg     *global.Config
	logger  *slog.Logger
}

func (a *channelAuditor) Log(e audit.Entry) {
	embed := &discordgo.MessageEmbed{
		Title: e.Action.Title(),
		Color: e.Action.Color(),
		Description: fmt.Sprintf("**Военнослужащий:** <@%s>\n**Кадровик:** <@%s>",
			e.TargetID, e.InitiatorID),
		Timestamp: e.At.Format("2006-01-02T15:04:05Z07:00"),
	}
	if e.TargetName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name: e.TargetName + " | " + e.Static,
		}
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}
	a.post(a.cfg.Channels.Audit, "", embed)
}

func (a *channelAuditor) Case(c audit.Case) {
	title := "📋 Новое дело"
	color := 0x992D22
	if c.Closed {
		title = "Дело закрыто"
		color = 0x1F8B4C
	}
	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: c.At.Format("2006-01-02T15:04:05Z07:00"),
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Составитель: " + c.InitiatorName,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Гражданин", Value: c.TargetName + " | " + c.Static},
			{Name: "Причина", Value: orDash(c.Reason)},
		},
	}
	if c.Evidence != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Доказательства", Value: c.Evidence,
		})
	}
	term := "Бессрочно"
	if c.EndsAt != nil {
		term = fmt.Sprintf("до <t:%d:d>", c.EndsAt.Unix())
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Срок", Value: term,
	})

	content := ""
	if !c.Closed {
		mentions := make([]string, 0, len(a.cfg.BlacklistMentionRoles)+2)
		mentions = append(mentions, "<@"+c.TargetID+">", "<@"+c.InitiatorID+">")
		for _, r := range a.cfg.BlacklistMentionRoles {
			mentions = append(mentions, "<@&"+r+">")
		}
		content = "-# ||" + strings.Join(mentions, " ") + "||"
	}
	a.postComplex(a.cfg.Channels.Blacklist, content, embed)
}

func (a *channelAuditor) SupplyIssued(s audit.SupplyIssue) {
	items := make([]string, 0, len(s.Items))
	for name := range s.Items {
		items = append(items, name)
	}
	sort.Strings(items)
	var sb strings.Builder
	for _, name := range items {
		fmt.Fprintf(&sb, "• %s — %d шт.\n", name, s.Items[name])
	}
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("📦 Выдача по запросу #%d", s.RequestID),
		Color: 0x57F287,
		Description: fmt.Sprintf("**Получатель:** %s | %s (<@%s>)\n**Выдал:** <@%s>\n\n%s",
			s.FullName, s.Static, s.UserID, s.ReviewerID, sb.String()),
		Timestamp: s.At.Format("2006-01-02T15:04:05Z07:00"),
	}
	a.post(a.cfg.Channels.StorageAudit, "", embed)
}

func (a *channelAuditor) post(channelID, content string, embed *discordgo.MessageEmbed) {
	a.postComplex(channelID, content, embed)
}

func (a *channelAuditor) postComplex(channelID, content string, embed *discordgo.MessageEmbed) {
	if channelID == "" {
		return
	}
	_, err := a.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		a.logger.Error("audit post failed",
			"component", "discord",
			"channel_id", channelID,
			"error", err,
		)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
