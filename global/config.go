package global

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config carries everything the bot needs at runtime. Values come from an
// optional yaml file, overridden by ARMY_BOT_* environment variables.
type Config struct {
	Token       string        `yaml:"token"       envconfig:"ARMY_BOT_TOKEN"`
	GuildID     string        `yaml:"guildId"     envconfig:"ARMY_BOT_GUILD_ID"`
	DataDir     string        `yaml:"dataDir"     envconfig:"ARMY_BOT_DATA_DIR"`
	Debug       bool          `yaml:"debug"       envconfig:"ARMY_BOT_DEBUG"`
	MetricsPort uint          `yaml:"metricsPort" envconfig:"ARMY_BOT_METRICS_PORT"`
	Channels    ChannelConfig `yaml:"channels"`
	Roles       RoleConfig    `yaml:"roles"`
	Ranks       []Rank        `yaml:"ranks"`
	Transfer    TransferConfig `yaml:"transfer"`
	Supply      SupplyConfig  `yaml:"supply"`

	// Role ids pinged under new blacklist cases.
	BlacklistMentionRoles []string `yaml:"blacklistMentionRoles"`
	// Roles that block a voluntary dismissal (active penalty, open case).
	DismissalBlockRoles []string `yaml:"dismissalBlockRoles"`

	// Dismissing earlier than this after enrollment costs a blacklist term.
	MinServiceDays       int `yaml:"minServiceDays"`
	PenaltyBlacklistDays int `yaml:"penaltyBlacklistDays"`

	// Division the army role grant enrolls into, and the id reinstated
	// members get until they pick a unit.
	BaseDivisionID       int `yaml:"baseDivisionId"`
	UnassignedDivisionID int `yaml:"unassignedDivisionId"`

	// Abbreviation of the division whose officers review army role grants
	// and auto dismissals when the target has no reviewable division.
	HQAbbreviation string `yaml:"hqAbbreviation"`
	// Abbreviation of the division allowed to review reinstatements.
	ReinstatementAbbreviation string `yaml:"reinstatementAbbreviation"`

	// Rank window offered on the reinstatement rank select.
	ReinstatementMinRank int `yaml:"reinstatementMinRank"`
	ReinstatementMaxRank int `yaml:"reinstatementMaxRank"`
}

type ChannelConfig struct {
	RoleGetting     string `yaml:"roleGetting"     envconfig:"ARMY_BOT_CHANNEL_ROLE_GETTING"`
	Reinstatement   string `yaml:"reinstatement"   envconfig:"ARMY_BOT_CHANNEL_REINSTATEMENT"`
	Dismissal       string `yaml:"dismissal"       envconfig:"ARMY_BOT_CHANNEL_DISMISSAL"`
	Timeoff         string `yaml:"timeoff"         envconfig:"ARMY_BOT_CHANNEL_TIMEOFF"`
	StorageRequests string `yaml:"storageRequests" envconfig:"ARMY_BOT_CHANNEL_STORAGE_REQUESTS"`
	StorageAudit    string `yaml:"storageAudit"    envconfig:"ARMY_BOT_CHANNEL_STORAGE_AUDIT"`
	Audit           string `yaml:"audit"           envconfig:"ARMY_BOT_CHANNEL_AUDIT"`
	Blacklist       string `yaml:"blacklist"       envconfig:"ARMY_BOT_CHANNEL_BLACKLIST"`
	StaticLog       string `yaml:"staticLog"       envconfig:"ARMY_BOT_CHANNEL_STATIC_LOG"`
}

// RoleConfig lists the marker roles managed alongside rank and division
// roles. MidCommand markers go to Major, SeniorCommand markers replace the
// unit deputy marker from Lieutenant Colonel up.
type RoleConfig struct {
	Military            string `yaml:"military"            envconfig:"ARMY_BOT_ROLE_MILITARY"`
	Contract            string `yaml:"contract"            envconfig:"ARMY_BOT_ROLE_CONTRACT"`
	MilitaryAcademy     string `yaml:"militaryAcademy"     envconfig:"ARMY_BOT_ROLE_MILITARY_ACADEMY"`
	BrigadeHQ           string `yaml:"brigadeHq"           envconfig:"ARMY_BOT_ROLE_BRIGADE_HQ"`
	GeneralHQ           string `yaml:"generalHq"           envconfig:"ARMY_BOT_ROLE_GENERAL_HQ"`
	UnitCommander       string `yaml:"unitCommander"       envconfig:"ARMY_BOT_ROLE_UNIT_COMMANDER"`
	UnitDeputyCommander string `yaml:"unitDeputyCommander" envconfig:"ARMY_BOT_ROLE_UNIT_DEPUTY_COMMANDER"`
	SupplyAccess        string `yaml:"supplyAccess"        envconfig:"ARMY_BOT_ROLE_SUPPLY_ACCESS"`
	GovEmployee         string `yaml:"govEmployee"         envconfig:"ARMY_BOT_ROLE_GOV_EMPLOYEE"`
	Attestation         string `yaml:"attestation"         envconfig:"ARMY_BOT_ROLE_ATTESTATION"`
	Reinforcement       string `yaml:"reinforcement"       envconfig:"ARMY_BOT_ROLE_REINFORCEMENT"`
}

// Markers returns every marker role id the reconciler may add or strip.
func (r RoleConfig) Markers() []string {
	return []string{
		r.Military, r.Contract, r.MilitaryAcademy,
		r.BrigadeHQ, r.GeneralHQ, r.UnitCommander, r.UnitDeputyCommander,
		r.SupplyAccess, r.GovEmployee, r.Attestation, r.Reinforcement,
	}
}

// Rank is one row of the ordered rank ladder. Index in the Ranks slice is the
// rank ordinal stored on members.
type Rank struct {
	Name   string `yaml:"name"`
	Short  string `yaml:"short"`
	Emoji  string `yaml:"emoji"`
	RoleID string `yaml:"roleId"`
}

type TransferConfig struct {
	MinRank int `yaml:"minRank"`
	// Divisions that require a higher entry rank, by abbreviation.
	EliteMinRank       int      `yaml:"eliteMinRank"`
	EliteAbbreviations []string `yaml:"eliteAbbreviations"`
}

// Duration lets yaml carry "3h30m" style values; time.Duration alone only
// accepts raw nanoseconds there.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// SupplyConfig describes the storage catalogue. Items keep their catalogue
// order for the request UI; limits are per single request.
type SupplyConfig struct {
	Categories     []SupplyCategory `yaml:"categories"`
	ItemLimits     map[string]int   `yaml:"itemLimits"`
	CategoryLimits map[string]int   `yaml:"categoryLimits"`
	Cooldown       Duration         `yaml:"cooldown"`
	InfoLink       string           `yaml:"infoLink"`
}

type SupplyCategory struct {
	Name  string   `yaml:"name"`
	Emoji string   `yaml:"emoji"`
	Items []string `yaml:"items"`
}

// CategoryOf returns the catalogue category an item belongs to.
func (s SupplyConfig) CategoryOf(item string) (SupplyCategory, bool) {
	for _, cat := range s.Categories {
		for _, it := range cat.Items {
			if it == item {
				return cat, true
			}
		}
	}
	return SupplyCategory{}, false
}

// Ordinals into Config.Ranks. The ladder is fixed for the community, only
// role ids vary per guild, so the thresholds live here rather than in yaml.
const (
	RankPrivate           = 0
	RankJuniorSergeant    = 2
	RankSeniorSergeant    = 4 // contract service starts here
	RankJuniorLieutenant  = 8
	RankCaptain           = 11
	RankMajor             = 12
	RankLieutenantColonel = 13
	RankColonel           = 14
	RankMajorGeneral      = 15
)

// MSK is the community timezone; daily quotas roll over at MSK midnight.
var MSK = time.FixedZone("MSK", 3*60*60)

// NameRegex matches "Имя Фамилия" as players write it in game.
var NameRegex = regexp.MustCompile(`^[А-ЯЁA-Z][а-яёa-z]+ [А-ЯЁA-Z][а-яёa-z]+$`)

// StaticRegex matches a game static id, digits with optional dash.
var StaticRegex = regexp.MustCompile(`^\d{1,3}-?\d{3}$`)

var globalConfig = &Config{
	DataDir:                   "./.army-bot",
	MinServiceDays:            5,
	PenaltyBlacklistDays:      14,
	BaseDivisionID:            1,
	UnassignedDivisionID:      0,
	HQAbbreviation:            "ВК",
	ReinstatementAbbreviation: "ВП",
	ReinstatementMinRank:      4,
	ReinstatementMaxRank:      8,
	Transfer: TransferConfig{
		MinRank:            RankJuniorSergeant,
		EliteMinRank:       RankSeniorSergeant,
		EliteAbbreviations: []string{"ССО"},
	},
	Supply: SupplyConfig{
		Cooldown: Duration(3 * time.Hour),
	},
	Ranks: DefaultRanks(),
}

// LoadConfig reads the yaml file at path (optional) and applies environment
// overrides, returning the singleton config.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process("armybot", globalConfig); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if len(globalConfig.Ranks) == 0 {
		globalConfig.Ranks = DefaultRanks()
	}
	if globalConfig.Supply.Cooldown == 0 {
		globalConfig.Supply.Cooldown = Duration(3 * time.Hour)
	}
	return globalConfig, nil
}

// GetConfig returns the previously loaded config.
func GetConfig() *Config {
	return globalConfig
}

// RankName returns the full name for a rank ordinal, empty when out of range.
func (c *Config) RankName(index int) string {
	if index < 0 || index >= len(c.Ranks) {
		return ""
	}
	return c.Ranks[index].Name
}

// RankShort returns the abbreviated rank name used in nicknames.
func (c *Config) RankShort(index int) string {
	if index < 0 || index >= len(c.Ranks) {
		return ""
	}
	return c.Ranks[index].Short
}

// RankRoleIDs returns every rank role id in ladder order.
func (c *Config) RankRoleIDs() []string {
	ids := make([]string, 0, len(c.Ranks))
	for _, r := range c.Ranks {
		ids = append(ids, r.RoleID)
	}
	return ids
}

// DefaultRanks returns the community ladder without role ids; real ids come
// from the yaml file.
func DefaultRanks() []Rank {
	return []Rank{
		{Name: "Рядовой", Short: "Рядовой"},
		{Name: "Ефрейтор", Short: "Ефрейтор"},
		{Name: "Младший сержант", Short: "Мл. Сержант"},
		{Name: "Сержант", Short: "Сержант"},
		{Name: "Старший сержант", Short: "Ст. Сержант"},
		{Name: "Старшина", Short: "Старшина"},
		{Name: "Прапорщик", Short: "Прапорщик"},
		{Name: "Старший прапорщик", Short: "Ст. Прапорщик"},
		{Name: "Младший лейтенант", Short: "Мл. Лейтенант"},
		{Name: "Лейтенант", Short: "Лейтенант"},
		{Name: "Старший лейтенант", Short: "Ст. Лейтенант"},
		{Name: "Капитан", Short: "Капитан"},
		{Name: "Майор", Short: "Майор"},
		{Name: "Подполковник", Short: "Подполковник"},
		{Name: "Полковник", Short: "Полковник"},
		{Name: "Генерал-майор", Short: "Ген. Майор"},
		{Name: "Генерал-лейтенант", Short: "Ген. Лейтенант"},
	}
}
