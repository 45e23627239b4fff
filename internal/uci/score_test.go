package uci

import "testing"

func TestScore_String(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"info depth 1 score cp 34", "cp 34"},
		{"info depth 1 score cp -120", "cp -120"},
		{"info depth 5 score mate 3", "#3"},
		{"info depth 5 score mate -3 pv e2e4", "#-3"},
		{"info depth 5", ScoreUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := Classify(tt.raw).Score().String(); got != tt.want {
				t.Errorf("Score().String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScore_Comparable(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{"centipawns", "info depth 1 score cp 34", 34, true},
		{"negative centipawns", "info depth 1 score cp -7", -7, true},
		{"mate for", "info depth 5 score mate 3", 33003, true},
		{"mate against", "info depth 5 score mate -3 pv e2e4", -33003, true},
		{"mated now", "info depth 5 score mate 0", -33000, true},
		{"missing", "info depth 5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.raw).Score().Comparable()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Comparable() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
