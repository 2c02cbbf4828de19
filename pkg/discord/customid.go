package discord

import (
	"fmt"
	"strconv"
	"strings"
)

// ControlID identifies what a component click means. Encoded into the
// component custom id as "kind:action:request_id[:extra]", so a handler can
// be rebuilt from the id alone after a restart.
type ControlID struct {
	Kind      string
	Action    string
	RequestID int64
	Extra     string
}

func (c ControlID) String() string {
	s := fmt.Sprintf("%s:%s:%d", c.Kind, c.Action, c.RequestID)
	if c.Extra != "" {
		s += ":" + c.Extra
	}
	return s
}

// ParseControlID decodes a component custom id. Ids without a numeric
// request part (static buttons like "role:open_form") come back with
// RequestID zero and the raw third segment in Extra.
func ParseControlID(raw string) (ControlID, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 2 {
		return ControlID{}, fmt.Errorf("malformed custom id %q", raw)
	}
	c := ControlID{Kind: parts[0], Action: parts[1]}
	if len(parts) >= 3 {
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			c.Extra = strings.Join(parts[2:], ":")
			return c, nil
		}
		c.RequestID = id
	}
	if len(parts) == 4 {
		c.Extra = parts[3]
	}
	return c, nil
}
