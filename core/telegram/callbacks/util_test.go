package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	for _, tc := range []struct {
		name        string
		cb          *tele.Callback
		key, params string
	}{
		{"nil", nil, "", ""},
		{"raw with payload", &tele.Callback{Data: "\fafk_back|now"}, "afk_back", "now"},
		{"raw without payload", &tele.Callback{Data: "\fafk_back"}, "afk_back", ""},
		{"already split", &tele.Callback{Unique: "afk_back", Data: "x"}, "afk_back", "x"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			if key != tc.key || payload != tc.params {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tc.key, tc.params)
			}
		})
	}
}
