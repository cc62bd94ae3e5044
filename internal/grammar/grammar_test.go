package grammar

import "testing"

func TestParse_RecognizedActions(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		action   Action
		orderNo  string
		argument string
		days     int
	}{
		{
			name:    "confirmed",
			content: "CONFIRMED PO-2024-001",
			action:  ActionConfirmed,
			orderNo: "PO-2024-001",
		},
		{
			name:    "production start",
			content: "PRODUCTION_START PO-2024-001",
			action:  ActionProductionStart,
			orderNo: "PO-2024-001",
		},
		{
			name:    "production complete",
			content: "PRODUCTION_COMPLETE PO-2024-002",
			action:  ActionProductionComplete,
			orderNo: "PO-2024-002",
		},
		{
			name:    "qc pass",
			content: "QC_PASS PO-2024-001",
			action:  ActionQCPass,
			orderNo: "PO-2024-001",
		},
		{
			name:     "qc fail with reason",
			content:  "QC_FAIL PO-2024-001 broken zipper",
			action:   ActionQCFail,
			orderNo:  "PO-2024-001",
			argument: "broken zipper",
		},
		{
			name:    "qc fail without reason",
			content: "QC_FAIL PO-2024-001",
			action:  ActionQCFail,
			orderNo: "PO-2024-001",
		},
		{
			name:     "shipped with tracking",
			content:  "SHIPPED PO-2024-001 SF1234567890",
			action:   ActionShipped,
			orderNo:  "PO-2024-001",
			argument: "SF1234567890",
		},
		{
			name:     "delay with days and reason",
			content:  "DELAY PO-2024-001 5 material shortage",
			action:   ActionDelay,
			orderNo:  "PO-2024-001",
			argument: "material shortage",
			days:     5,
		},
		{
			name:    "delay with days only",
			content: "DELAY PO-2024-001 3",
			action:  ActionDelay,
			orderNo: "PO-2024-001",
			days:    3,
		},
		{
			name:    "keyword is case-insensitive",
			content: "confirmed PO-2024-001",
			action:  ActionConfirmed,
			orderNo: "PO-2024-001",
		},
		{
			name:    "order number keeps original case",
			content: "shipped po-abc-01 SF99",
			action:  ActionShipped,
			// the PO- prefix itself is matched case-insensitively
			orderNo:  "po-abc-01",
			argument: "SF99",
		},
		{
			name:    "surrounding chatter is tolerated",
			content: "Hi team, CONFIRMED PO-2024-001 thanks",
			action:  ActionConfirmed,
			orderNo: "PO-2024-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Parse(tt.content)
			if ev == nil {
				t.Fatalf("Parse(%q) returned nil, want action %s", tt.content, tt.action)
			}
			if ev.Action != tt.action {
				t.Errorf("action = %s, want %s", ev.Action, tt.action)
			}
			if ev.OrderNo != tt.orderNo {
				t.Errorf("orderNo = %q, want %q", ev.OrderNo, tt.orderNo)
			}
			if ev.Argument != tt.argument {
				t.Errorf("argument = %q, want %q", ev.Argument, tt.argument)
			}
			if ev.Days != tt.days {
				t.Errorf("days = %d, want %d", ev.Days, tt.days)
			}
		})
	}
}

func TestParse_NoMatch(t *testing.T) {
	inputs := []string{
		"HELLO",
		"",
		"CONFIRMED",                  // missing order reference
		"CONFIRMED 2024-001",         // reference without PO- prefix
		"DELAY PO-2024-001",          // delay requires a day count
		"DELAY PO-2024-001 soon",     // day count must be numeric
		"PRODUCTION_STARTED PO-1",    // unknown keyword variant
		"please confirm the order",   // free text
	}

	for _, content := range inputs {
		if ev := Parse(content); ev != nil {
			t.Errorf("Parse(%q) = %+v, want nil", content, ev)
		}
	}
}

func TestParse_FirstMatchWins(t *testing.T) {
	// Two keywords in one reply: priority order decides deterministically.
	ev := Parse("CONFIRMED PO-1 and SHIPPED PO-2 SF1")
	if ev == nil {
		t.Fatal("expected a match")
	}
	if ev.Action != ActionConfirmed {
		t.Errorf("action = %s, want %s", ev.Action, ActionConfirmed)
	}
	if ev.OrderNo != "PO-1" {
		t.Errorf("orderNo = %q, want %q", ev.OrderNo, "PO-1")
	}
}
