package keyboard

import "testing"

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons(
		InlineBtn{Text: "Back", Unique: "afk_back"},
		InlineBtn{Text: "Status", Unique: "afk_status", Data: "full"},
	)
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	first := m.InlineKeyboard[0][0]
	if first.Text != "Back" || first.Unique != "afk_back" {
		t.Fatalf("unexpected first button: %+v", first)
	}
	if got := m.InlineKeyboard[1][0].Data; got != "full" {
		t.Fatalf("second button data = %q", got)
	}
}
