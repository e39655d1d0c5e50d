package rules

import (
	"strings"
	"testing"
)

// Helper to play one nim move and fail the test on engine error.
func mustStep(t *testing.T, eng Engine, action string) (bool, StepInfo) {
	t.Helper()
	done, info, err := eng.Step(action)
	if err != nil {
		t.Fatalf("Step(%q) returned error: %v", action, err)
	}
	return done, info
}

func TestMessageJSONRoundTrip(t *testing.T) {
	msgs := []Message{
		{SenderID: GameSenderID, Text: "You are Player 0"},
		{SenderID: 1, Text: "I take 2"},
	}
	encoded := EncodeMessages(msgs)
	if !strings.HasPrefix(encoded, "[[-1,") {
		t.Errorf("expected pair-array encoding, got %s", encoded)
	}
	decoded := DecodeMessages(encoded)
	if len(decoded) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(decoded))
	}
	if decoded[0] != msgs[0] || decoded[1] != msgs[1] {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeMessagesRejectsGarbage(t *testing.T) {
	if got := DecodeMessages("not json"); got != nil {
		t.Errorf("expected nil for garbage input, got %+v", got)
	}
	if got := DecodeMessages(`[[1,"a",3]]`); got != nil {
		t.Errorf("expected nil for triple, got %+v", got)
	}
}

func TestNimAlternatesTurnsAndFinishes(t *testing.T) {
	eng, err := Make("NimDuel-v0")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}

	if eng.CurrentPlayer() != 0 {
		t.Fatalf("expected Player 0 to open, got %d", eng.CurrentPlayer())
	}

	// Both players should hold an intro observation before any step.
	for pid := 0; pid < 2; pid++ {
		obs := eng.Observation(pid)
		if len(obs) == 0 {
			t.Fatalf("Player %d got no intro observation", pid)
		}
		// Drained: a second read is empty.
		if rest := eng.Observation(pid); len(rest) != 0 {
			t.Errorf("Player %d observation not drained: %+v", pid, rest)
		}
	}

	// 21 tokens: 3-3-3-3-3-3-3 means the 7th take (player 0) wins.
	var done bool
	var info StepInfo
	mover := 0
	for i := 0; i < 7; i++ {
		if eng.CurrentPlayer() != mover {
			t.Fatalf("move %d: expected player %d's turn, got %d", i, mover, eng.CurrentPlayer())
		}
		done, info = mustStep(t, eng, "I take 3 tokens")
		mover = 1 - mover
	}
	if !done {
		t.Fatal("game should be done after 21 tokens are gone")
	}
	if !strings.Contains(info.Reason, "Player 0 took the last token") {
		t.Errorf("unexpected reason %q", info.Reason)
	}

	rewards := eng.Close()
	if rewards[0] != 1 || rewards[1] != -1 {
		t.Errorf("expected winner 0: rewards %v", rewards)
	}
}

func TestNimMisereInvertsWinner(t *testing.T) {
	eng, err := Make("NimMisere-v0")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	for i := 0; i < 7; i++ {
		mustStep(t, eng, "3")
	}
	rewards := eng.Close()
	if rewards[0] != -1 || rewards[1] != 1 {
		t.Errorf("misere: taking the last token should lose, rewards %v", rewards)
	}
}

func TestNimInvalidMoveLosesImmediately(t *testing.T) {
	eng, err := Make("NimDuel-v0")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	done, info := mustStep(t, eng, "I will take all of them")
	if !done {
		t.Fatal("invalid move should end the game")
	}
	if !strings.Contains(info.Reason, "invalid move") {
		t.Errorf("unexpected reason %q", info.Reason)
	}
	rewards := eng.Close()
	if rewards[0] != -1 || rewards[1] != 0 {
		t.Errorf("offender should get -1, opponent 0: %v", rewards)
	}
}

func TestNimRejectsOverdraw(t *testing.T) {
	eng, _ := Make("NimDuel-v0")
	for i := 0; i < 6; i++ {
		mustStep(t, eng, "3") // pile down to 3
	}
	mustStep(t, eng, "2") // pile now 1, player 1's turn
	done, _ := mustStep(t, eng, "3")
	if !done {
		t.Fatal("taking 3 from a pile of 1 should end the game")
	}
	if rewards := eng.Close(); rewards[1] != -1 {
		t.Errorf("overdrawing player should lose: %v", rewards)
	}
}

func TestNimForceObservationAfterDone(t *testing.T) {
	eng, _ := Make("NimDuel-v0")
	mustStep(t, eng, "nonsense")
	obs := eng.ForceObservation(1)
	if len(obs) == 0 {
		t.Fatal("expected terminal observation")
	}
	last := obs[len(obs)-1]
	if last.SenderID != GameSenderID || !strings.Contains(last.Text, "Game over") {
		t.Errorf("expected game-over summary, got %+v", last)
	}
}

func TestSubsetPicksRegisteredVariant(t *testing.T) {
	eng, err := Make("BalancedSubset-v0")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	got := eng.EnvID()
	if got != "NimDuel-v0" && got != "NimMisere-v0" {
		t.Errorf("subset picked unknown variant %q", got)
	}
	if eng.NumPlayers() != 2 {
		t.Errorf("expected 2 players, got %d", eng.NumPlayers())
	}
}

func TestMakeUnknownEnvironment(t *testing.T) {
	if _, err := Make("Chess-v9"); err == nil {
		t.Error("expected error for unregistered environment")
	}
}

func TestRegisteredCatalog(t *testing.T) {
	for _, id := range []string{"NimDuel-v0", "NimMisere-v0", "BalancedSubset-v0"} {
		n, ok := Players(id)
		if !ok || n != 2 {
			t.Errorf("%s: want registered with 2 players, got (%d,%v)", id, n, ok)
		}
	}
}
