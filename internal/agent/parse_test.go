package agent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Outcome
	}{
		{
			name:     "final answer",
			response: "FINAL ANSWER: Your order has shipped and should arrive Friday.",
			want:     Outcome{Kind: KindFinal, Text: "Your order has shipped and should arrive Friday."},
		},
		{
			name:     "final marker lowercase",
			response: "final answer: All set, the refund is on its way.",
			want:     Outcome{Kind: KindFinal, Text: "All set, the refund is on its way."},
		},
		{
			name:     "bare marker",
			response: "FINAL ANSWER:",
			want:     Outcome{Kind: KindFinal, Text: ""},
		},
		{
			name:     "action call",
			response: `{"action": "fetch_order", "action_input": "ORD0001"}`,
			want:     Outcome{Kind: KindAction, Name: "fetch_order", Input: "ORD0001"},
		},
		{
			name:     "action embedded in prose",
			response: `Let me check that for you. {"action": "check_refund_eligibility", "action_input": "ORD0002"} One moment.`,
			want:     Outcome{Kind: KindAction, Name: "check_refund_eligibility", Input: "ORD0002"},
		},
		{
			name:     "marker wins over action",
			response: `FINAL ANSWER: I already ran {"action": "fetch_order", "action_input": "ORD0001"} for you.`,
			want:     Outcome{Kind: KindFinal, Text: `I already ran {"action": "fetch_order", "action_input": "ORD0001"} for you.`},
		},
		{
			name:     "plain prose falls open",
			response: "Could you share your order number so I can take a look?",
			want:     Outcome{Kind: KindPlain, Text: "Could you share your order number so I can take a look?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.response)
			if got.Kind != tt.want.Kind {
				t.Fatalf("kind = %v, want %v", got.Kind, tt.want.Kind)
			}
			if got.Text != tt.want.Text || got.Name != tt.want.Name || got.Input != tt.want.Input {
				t.Errorf("outcome = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyActionInputObject(t *testing.T) {
	got := Classify(`{"action": "update_order_status", "action_input": "ORD0001|shipped"}`)
	if got.Kind != KindAction || got.Input != "ORD0001|shipped" {
		t.Errorf("outcome = %+v", got)
	}
}
