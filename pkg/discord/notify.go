package discord

import (
	"log/slog"
	"time"

	"github.com/Effectys/rmrp-army-bot/pkg/audit"
	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
)

// dmNotifier delivers notices as direct messages. Delivery is best-effort:
// transient failures are retried briefly, members with closed DMs are
// skipped with a debug log.
type dmNotifier struct {
	session *discordgo.Session
	logger  *slog.Logger
}

func (n *dmNotifier) Notify(userID string, notice audit.Notice) {
	go func() {
		embed := &discordgo.MessageEmbed{
			Title:       notice.Title,
			Description: notice.Description,
			Color:       notice.Color,
		}
		for _, f := range notice.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  f.Name,
				Value: f.Value,
			})
		}
		policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(time.Second),
		), 3)
		err := backoff.Retry(func() error {
			ch, err := n.session.UserChannelCreate(userID)
			if err != nil {
				return err
			}
			_, err = n.session.ChannelMessageSendEmbed(ch.ID, embed)
			if err != nil {
				if restErr, ok := err.(*discordgo.RESTError); ok &&
					restErr.Message != nil &&
					restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
					// Closed DMs, not worth retrying.
					return backoff.Permanent(err)
				}
				return err
			}
			return nil
		}, policy)
		if err != nil {
			n.logger.Debug("dm delivery failed",
				"component", "discord",
				"user_id", userID,
				"error", err,
			)
		}
	}()
}
