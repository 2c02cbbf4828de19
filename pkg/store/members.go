package store

import (
	"github.com/Effectys/rmrp-army-bot/models"
	"gorm.io/gorm/clause"
)

// MemberByDiscordID looks up a service record by discord user id.
func (s *Store) MemberByDiscordID(discordID string) (*models.Member, error) {
	var m models.Member
	if err := s.db.First(&m, "discord_id = ?", discordID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &m, nil
}

// SaveMember creates or updates a service record.
func (s *Store) SaveMember(m *models.Member) error {
	return s.db.Save(m).Error
}

// MembersOfDivision lists enrolled members of a division, highest rank first.
func (s *Store) MembersOfDivision(divisionID int) ([]models.Member, error) {
	var out []models.Member
	err := s.db.
		Where("division = ? AND rank IS NOT NULL", divisionID).
		Order("rank DESC").
		Find(&out).Error
	return out, err
}

// MemberExists reports whether any record exists for the discord user.
func (s *Store) MemberExists(discordID string) (bool, error) {
	var n int64
	err := s.db.Model(&models.Member{}).
		Where("discord_id = ?", discordID).
		Count(&n).Error
	return n > 0, err
}

// Divisions loads all divisions with their positions, ordered by id.
func (s *Store) Divisions() ([]models.Division, error) {
	var out []models.Division
	err := s.db.Preload("Positions").Order("id").Find(&out).Error
	return out, err
}

// SeedDivisions upserts the configured division table. Positions are replaced
// wholesale so renames in the seed file take effect.
func (s *Store) SeedDivisions(divisions []models.Division) error {
	for i := range divisions {
		div := divisions[i]
		if err := s.db.Where("division_id = ?", div.ID).
			Delete(&models.Position{}).Error; err != nil {
			return err
		}
		if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&div).Error; err != nil {
			return err
		}
	}
	return nil
}

// BottomMessage returns the remembered bottom message id for a channel.
func (s *Store) BottomMessage(channelID string) (string, error) {
	var bm models.BottomMessage
	if err := s.db.First(&bm, "channel_id = ?", channelID).Error; err != nil {
		return "", mapNotFound(err)
	}
	return bm.MessageID, nil
}

// SaveBottomMessage upserts the bottom message id for a channel.
func (s *Store) SaveBottomMessage(channelID, messageID string) error {
	bm := models.BottomMessage{ChannelID: channelID, MessageID: messageID}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&bm).Error
}
