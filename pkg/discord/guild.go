package discord

import (
	"github.com/bwmarrin/discordgo"
)

// guildAdapter implements the lifecycle Guild port over the live session.
type guildAdapter struct {
	session *discordgo.Session
	guildID string
}

func (g *guildAdapter) MemberRoles(userID string) ([]string, error) {
	member, err := g.session.GuildMember(g.guildID, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (g *guildAdapter) EditMember(userID string, nick string, roles []string) error {
	_, err := g.session.GuildMemberEdit(g.guildID, userID, &discordgo.GuildMemberParams{
		Nick:  nick,
		Roles: &roles,
	})
	return err
}

func (g *guildAdapter) AddRoles(userID string, roleIDs ...string) error {
	for _, id := range roleIDs {
		if id == "" {
			continue
		}
		if err := g.session.GuildMemberRoleAdd(g.guildID, userID, id); err != nil {
			return err
		}
	}
	return nil
}

func (g *guildAdapter) RemoveRoles(userID string, roleIDs ...string) error {
	for _, id := range roleIDs {
		if id == "" {
			continue
		}
		if err := g.session.GuildMemberRoleRemove(g.guildID, userID, id); err != nil {
			return err
		}
	}
	return nil
}
