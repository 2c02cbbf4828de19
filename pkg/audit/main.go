// Package audit defines the payloads posted to the audit channels and sent
// to members as direct messages. Rendering lives in the transport layer.
package audit

import "time"

// Action classifies a personnel audit entry.
type Action string

const (
	ActionInvited          Action = "INVITED"
	ActionDismissed        Action = "DISMISSED"
	ActionRankChanged      Action = "RANK_CHANGED"
	ActionDivisionAssigned Action = "DIVISION_ASSIGNED"
	ActionDivisionChanged  Action = "DIVISION_CHANGED"
	ActionPositionChanged  Action = "POSITION_CHANGED"
	ActionReinstated       Action = "REINSTATED"
	ActionRecordEdited     Action = "RECORD_EDITED"
)

// Title returns the audit channel heading for the action.
func (a Action) Title() string {
	switch a {
	case ActionInvited:
		return "✅ Принятие на службу"
	case ActionDismissed:
		return "📤 Увольнение"
	case ActionRankChanged:
		return "🎖️ Изменение звания"
	case ActionDivisionAssigned:
		return "📌 Назначение в подразделение"
	case ActionDivisionChanged:
		return "🔁 Перевод в подразделение"
	case ActionPositionChanged:
		return "💼 Изменение должности"
	case ActionReinstated:
		return "♻️ Восстановление"
	case ActionRecordEdited:
		return "✏️ Изменение личного дела"
	}
	return string(a)
}

// Color returns the embed colour for the action.
func (a Action) Color() int {
	switch a {
	case ActionInvited, ActionReinstated:
		return 0x57F287
	case ActionDismissed:
		return 0xED4245
	default:
		return 0x3498DB
	}
}

// Field is one name/value pair of an audit entry, rendered in order.
type Field struct {
	Name  string
	Value string
}

// Entry is a personnel action posted to the audit channel.
type Entry struct {
	Action      Action
	InitiatorID string
	TargetID    string
	TargetName  string
	Static      string
	Fields      []Field
	At          time.Time
}

// Case is a blacklist case posted to the blacklist channel.
type Case struct {
	Closed        bool
	InitiatorID   string
	InitiatorName string
	TargetID      string
	TargetName    string
	Static        string
	Reason        string
	Evidence      string
	EndsAt        *time.Time
	At            time.Time
}

// SupplyIssue is an issued requisition posted to the storage audit channel.
type SupplyIssue struct {
	RequestID  int64
	UserID     string
	FullName   string
	Static     string
	ReviewerID string
	Items      map[string]int
	At         time.Time
}

// Notice is a direct message to a member about something that happened to
// their record or request.
type Notice struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
}
