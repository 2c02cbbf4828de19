package migrations

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Effectys/rmrp-army-bot/global"
	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/division"
	"github.com/Effectys/rmrp-army-bot/pkg/rolesync"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"
)

const membersPageSize = 1000

// SyncMembers walks the guild and writes a service record for every enrolled
// member who does not have one yet, deriving rank from rank roles and
// division/position from division roles. Existing records are left alone.
func SyncMembers(
	ctx context.Context,
	session *discordgo.Session,
	st *store.Store,
	reg *division.Registry,
	cfg *global.Config,
	logger *slog.Logger,
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	after := ""
	total := 0
	for {
		page, err := session.GuildMembers(cfg.GuildID, after, membersPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		after = page[len(page)-1].User.ID
		for _, gm := range page {
			if gm.User == nil || gm.User.Bot {
				continue
			}
			gm := gm
			total++
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return syncOne(st, reg, cfg, logger, gm)
			})
		}
		if len(page) < membersPageSize {
			break
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("member sync finished", "component", "migrations", "seen", total)
	return nil
}

func syncOne(
	st *store.Store,
	reg *division.Registry,
	cfg *global.Config,
	logger *slog.Logger,
	gm *discordgo.Member,
) error {
	exists, err := st.MemberExists(gm.User.ID)
	if err != nil || exists {
		return err
	}
	rank := rolesync.RankFromRoles(gm.Roles, cfg)
	div, pos := reg.Resolve(gm.Roles)
	if rank == nil && div == nil {
		return nil
	}
	m := &models.Member{
		DiscordID: gm.User.ID,
		Rank:      rank,
		PreInited: true,
	}
	if div != nil {
		m.Division = &div.ID
	}
	if pos != nil {
		name := pos.Name
		m.Position = &name
	}
	m.SetFullName(nameFromNick(gm.Nick))
	if err := st.SaveMember(m); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("member sync: save failed",
			"component", "migrations",
			"user_id", gm.User.ID,
			"error", err,
		)
		return nil
	}
	return nil
}

// nameFromNick pulls the name segment out of "АББР | Звание | Имя Фамилия".
func nameFromNick(nick string) string {
	if nick == "" {
		return ""
	}
	parts := strings.Split(nick, "|")
	return strings.TrimSpace(parts[len(parts)-1])
}
