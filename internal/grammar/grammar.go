// Package grammar parses free-text factory replies into discrete
// production-lifecycle events. The grammar is deliberately small and rigid:
// replies that don't match a rule are recorded but never auto-corrected.
package grammar

import (
	"regexp"
	"strconv"
	"strings"
)

type Action string

const (
	ActionConfirmed          Action = "CONFIRMED"
	ActionProductionStart    Action = "PRODUCTION_START"
	ActionProductionComplete Action = "PRODUCTION_COMPLETE"
	ActionQCPass             Action = "QC_PASS"
	ActionQCFail             Action = "QC_FAIL"
	ActionShipped            Action = "SHIPPED"
	ActionDelay              Action = "DELAY"
)

// Event is one recognized factory reply. Argument carries the free-text
// remainder (QC_FAIL reason, SHIPPED tracking number, DELAY reason); Days is
// only set for DELAY.
type Event struct {
	Action   Action
	OrderNo  string
	Argument string
	Days     int
}

// rule pairs a compiled pattern with an extractor so new factory commands
// can be added without touching the dispatch loop.
type rule struct {
	action  Action
	pattern *regexp.Regexp
	extract func(m []string) *Event
}

const orderRef = `(PO-[A-Za-z0-9-]+)`

func simpleRule(action Action, keyword string) rule {
	re := regexp.MustCompile(`(?i)\b` + keyword + `\s+` + orderRef)
	return rule{
		action:  action,
		pattern: re,
		extract: func(m []string) *Event {
			return &Event{Action: action, OrderNo: m[1]}
		},
	}
}

func argRule(action Action, keyword string) rule {
	re := regexp.MustCompile(`(?i)\b` + keyword + `\s+` + orderRef + `(?:\s+(.+))?`)
	return rule{
		action:  action,
		pattern: re,
		extract: func(m []string) *Event {
			return &Event{
				Action:   action,
				OrderNo:  m[1],
				Argument: strings.TrimSpace(m[2]),
			}
		},
	}
}

func delayRule() rule {
	re := regexp.MustCompile(`(?i)\bDELAY\s+` + orderRef + `\s+(\d+)(?:\s+(.+))?`)
	return rule{
		action:  ActionDelay,
		pattern: re,
		extract: func(m []string) *Event {
			days, _ := strconv.Atoi(m[2])
			return &Event{
				Action:   ActionDelay,
				OrderNo:  m[1],
				Argument: strings.TrimSpace(m[3]),
				Days:     days,
			}
		},
	}
}

// Rules are tried in this order; first match wins. QC_FAIL must come before
// QC_PASS-style prefixes would be ambiguous, so keep distinct keywords only.
var rules = []rule{
	simpleRule(ActionConfirmed, "CONFIRMED"),
	simpleRule(ActionProductionStart, "PRODUCTION_START"),
	simpleRule(ActionProductionComplete, "PRODUCTION_COMPLETE"),
	simpleRule(ActionQCPass, "QC_PASS"),
	argRule(ActionQCFail, "QC_FAIL"),
	argRule(ActionShipped, "SHIPPED"),
	delayRule(),
}

// Parse returns the first matching event, or nil when no rule matches.
// Matching is case-insensitive but the captured order number keeps its
// original case.
func Parse(content string) *Event {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(content); m != nil {
			return r.extract(m)
		}
	}
	return nil
}
