package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wordarena/backend/internal/agents"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/elo"
	"github.com/wordarena/backend/internal/events"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
	"github.com/wordarena/backend/internal/store/storetest"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultElo:      1000,
		InitialK:        32,
		ReducedK:        16,
		GamesThreshold:  50,
		HumanK:          8,
		StandardK:       8,
		StepTimeoutSecs: 180,
		StandardModels:  []string{"house-bot"},
	}
}

func newRegistry(t *testing.T) (*session.Registry, *store.Store, *config.Config) {
	t.Helper()
	st, _ := storetest.New(t)
	cfg := testConfig()
	reg := session.NewRegistry(st, cfg, elo.NewUpdater(st, cfg), events.NewPublisher(nil))
	return reg, st, cfg
}

func newGame(t *testing.T, st *store.Store, envID string, names ...string) int64 {
	t.Helper()
	seats := make([]store.Seat, len(names))
	for i, n := range names {
		seats[i] = store.Seat{Name: n}
	}
	gameID, err := st.CreateGameWithPlayers(envID, 100.0, seats)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return gameID
}

type failingAgent struct{}

func (failingAgent) Act(ctx context.Context, observation string) (string, error) {
	return "", errors.New("model endpoint unreachable")
}

func TestCheckTurnCreatesPendingExactlyOnce(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")

	sess, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	first, err := sess.CheckTurn(0, 101.0)
	if err != nil {
		t.Fatalf("check turn: %v", err)
	}
	if !first.MyTurn || first.Done {
		t.Fatalf("player 0 should open: %+v", first)
	}
	if first.Observation == "" || first.Observation == "[]" {
		t.Fatalf("empty opening observation: %q", first.Observation)
	}

	second, err := sess.CheckTurn(0, 102.0)
	if err != nil {
		t.Fatalf("repeat poll: %v", err)
	}
	if second.Observation != first.Observation {
		t.Errorf("repeat poll changed the observation:\n%q\n%q", first.Observation, second.Observation)
	}

	seat, _ := st.PlayerGame(gameID, "alpha")
	if n, _ := st.CountTurnLogs(seat.ID); n != 1 {
		t.Errorf("turn log rows = %d, want exactly 1 after repeat polls", n)
	}

	other, err := sess.CheckTurn(1, 103.0)
	if err != nil {
		t.Fatalf("opponent poll: %v", err)
	}
	if other.MyTurn || other.Done {
		t.Errorf("player 1 polled into someone else's turn: %+v", other)
	}

	// Every active poll refreshes the liveness clock, whoever's turn it is.
	oppSeat, _ := st.PlayerGame(gameID, "beta")
	if !oppSeat.LastActionTime.Valid || oppSeat.LastActionTime.Float64 != 103.0 {
		t.Errorf("opponent last_action_time = %+v, want refreshed to 103", oppSeat.LastActionTime)
	}
}

func TestSubmitActionAdvancesTurn(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")
	sess, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	if _, err := sess.CheckTurn(0, 101.0); err != nil {
		t.Fatalf("check turn: %v", err)
	}
	done, err := sess.SubmitAction(0, "3", 102.0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if done {
		t.Fatal("one move cannot end the game")
	}

	seat, _ := st.PlayerGame(gameID, "alpha")
	if _, err := st.PendingTurnLog(seat.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("answered turn still pending: %v", err)
	}

	ts, err := sess.CheckTurn(1, 103.0)
	if err != nil {
		t.Fatalf("opponent poll: %v", err)
	}
	if !ts.MyTurn {
		t.Error("turn did not pass to player 1")
	}
	// The opponent's move is relayed into player 1's observation.
	if !strings.Contains(ts.Observation, `[0,"3"]`) {
		t.Errorf("relayed move missing from observation: %q", ts.Observation)
	}

	if _, err := sess.SubmitAction(0, "1", 104.0); !errors.Is(err, session.ErrNotYourTurn) {
		t.Errorf("out-of-turn submit: got %v, want ErrNotYourTurn", err)
	}
}

func TestFullGameFinalization(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")
	sess, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	// 21 tokens, everyone takes 3: the 7th move (player 0) takes the last.
	now := 101.0
	var done bool
	for i := 0; i < 7; i++ {
		playerID := i % 2
		if _, err := sess.CheckTurn(playerID, now); err != nil {
			t.Fatalf("move %d check: %v", i, err)
		}
		done, err = sess.SubmitAction(playerID, "3", now+0.5)
		if err != nil {
			t.Fatalf("move %d submit: %v", i, err)
		}
		now++
	}
	if !done {
		t.Fatal("game should be done after 21 tokens")
	}

	g, _ := st.GetGame(gameID)
	if g.Status != models.GameFinished {
		t.Fatalf("status = %q, want finished", g.Status)
	}
	if g.Reason.String != "Player 0 took the last token." {
		t.Errorf("reason = %q", g.Reason.String)
	}

	winner, _ := st.PlayerGame(gameID, "alpha")
	loser, _ := st.PlayerGame(gameID, "beta")
	if winner.Reward.Float64 != 1 || winner.Outcome.String != models.OutcomeWin {
		t.Errorf("winner seat: %+v", winner)
	}
	if loser.Reward.Float64 != -1 || loser.Outcome.String != models.OutcomeLoss {
		t.Errorf("loser seat: %+v", loser)
	}

	// Fresh players at K=32: 1016 and 984.
	if got, _, _ := st.LatestRating("alpha", "NimDuel-v0"); got != 1016 {
		t.Errorf("alpha elo = %v, want 1016", got)
	}
	if got, _, _ := st.LatestRating("beta", "NimDuel-v0"); got != 984 {
		t.Errorf("beta elo = %v, want 984", got)
	}

	if _, ok := reg.Lookup(gameID); ok {
		t.Error("finalized session still registered")
	}

	if _, err := sess.SubmitAction(1, "1", now); !errors.Is(err, session.ErrGameOver) {
		t.Errorf("submit after finish: got %v, want ErrGameOver", err)
	}
	ts, err := sess.CheckTurn(1, now)
	if err != nil {
		t.Fatalf("terminal poll: %v", err)
	}
	if !ts.Done || !strings.Contains(ts.Observation, "Game over") {
		t.Errorf("terminal poll = %+v", ts)
	}
}

func TestLocalSeatIsDrivenAtConstruction(t *testing.T) {
	reg, st, _ := newRegistry(t)
	reg.NewAgent = func(cfg *config.Config, name string) agents.Agent {
		return agents.NewScriptedAgent("3")
	}
	gameID := newGame(t, st, "NimDuel-v0", "house-bot", "alpha")

	sess, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	// The local opener has already played: one answered log, turn is remote.
	localSeat, _ := st.PlayerGame(gameID, "house-bot")
	if n, _ := st.CountTurnLogs(localSeat.ID); n != 1 {
		t.Errorf("local turn logs = %d, want 1", n)
	}
	if _, err := st.PendingTurnLog(localSeat.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("local turn left pending: %v", err)
	}

	ts, err := sess.CheckTurn(1, 101.0)
	if err != nil {
		t.Fatalf("remote poll: %v", err)
	}
	if !ts.MyTurn {
		t.Fatal("remote player should be on turn after the local opener")
	}
	if !strings.Contains(ts.Observation, "3") {
		t.Errorf("remote observation missing the local move: %q", ts.Observation)
	}
}

func TestLocalDriveFinishesGameAfterRemoteAction(t *testing.T) {
	reg, st, _ := newRegistry(t)
	reg.NewAgent = func(cfg *config.Config, name string) agents.Agent {
		return agents.NewScriptedAgent("3")
	}
	gameID := newGame(t, st, "NimDuel-v0", "house-bot", "alpha")
	sess, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	// Pile after the local opener: 18. Each remote move triggers a local
	// reply; the fourth local move takes the last token.
	now := 101.0
	var done bool
	for i := 0; i < 3; i++ {
		if _, err := sess.CheckTurn(1, now); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		done, err = sess.SubmitAction(1, "3", now+0.5)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		now++
	}
	if !done {
		t.Fatal("local drive should have finished the game")
	}

	g, _ := st.GetGame(gameID)
	if g.Status != models.GameFinished || g.Reason.String != "Player 0 took the last token." {
		t.Fatalf("game row: %+v", g)
	}

	// Standard K=8 for the house bot, K=32 for the fresh remote.
	if got, _, _ := st.LatestRating("house-bot", "NimDuel-v0"); got != 1004 {
		t.Errorf("house-bot elo = %v, want 1004", got)
	}
	if got, _, _ := st.LatestRating("alpha", "NimDuel-v0"); got != 984 {
		t.Errorf("alpha elo = %v, want 984", got)
	}
}

func TestAgentFailureLeavesPendingForTheSweeper(t *testing.T) {
	reg, st, _ := newRegistry(t)
	reg.NewAgent = func(cfg *config.Config, name string) agents.Agent {
		return failingAgent{}
	}
	gameID := newGame(t, st, "NimDuel-v0", "house-bot", "alpha")

	if _, err := reg.Get(gameID); err != nil {
		t.Fatalf("get session: %v", err)
	}

	g, _ := st.GetGame(gameID)
	if g.Status != models.GameActive {
		t.Fatalf("agent failure must not end the game, status = %q", g.Status)
	}
	localSeat, _ := st.PlayerGame(gameID, "house-bot")
	pending, err := st.PendingTurnLog(localSeat.ID)
	if err != nil {
		t.Fatalf("expected a pending row for the stuck local seat: %v", err)
	}
	if pending.Action.Valid {
		t.Errorf("stuck turn should be unanswered: %+v", pending)
	}
}

func TestGetIsIdempotentAndRefusesTerminalGames(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")

	s1, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s2, err := reg.Get(gameID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if s1 != s2 {
		t.Error("two gets built two sessions for one game")
	}

	if err := st.FailGame(gameID, "operator"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	reg.Remove(gameID)
	if _, err := reg.Get(gameID); !errors.Is(err, store.ErrGameNotActive) {
		t.Errorf("get on terminal game: got %v, want ErrGameNotActive", err)
	}
}

func TestGetRecordsChosenVariant(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "BalancedSubset-v0", "alpha", "beta")

	if _, err := reg.Get(gameID); err != nil {
		t.Fatalf("get: %v", err)
	}
	g, _ := st.GetGame(gameID)
	if !g.SpecificEnvID.Valid {
		t.Fatal("subset game did not record its variant")
	}
	v := g.SpecificEnvID.String
	if v != "NimDuel-v0" && v != "NimMisere-v0" {
		t.Errorf("unexpected variant %q", v)
	}
}

func TestForfeitGame(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")
	if _, err := reg.Get(gameID); err != nil {
		t.Fatalf("get: %v", err)
	}

	reason := "Player 'alpha' timed out."
	if err := reg.ForfeitGame(gameID, "alpha", reason, 200.0); err != nil {
		t.Fatalf("forfeit: %v", err)
	}

	g, _ := st.GetGame(gameID)
	if g.Status != models.GameFinished || g.Reason.String != reason {
		t.Fatalf("game row: %+v", g)
	}
	offender, _ := st.PlayerGame(gameID, "alpha")
	other, _ := st.PlayerGame(gameID, "beta")
	if offender.Reward.Float64 != -1 || offender.Outcome.String != models.OutcomeLoss {
		t.Errorf("offender seat: %+v", offender)
	}
	if other.Reward.Float64 != 0 || other.Outcome.String != models.OutcomeWin {
		t.Errorf("opponent seat: %+v", other)
	}
	if got, _, _ := st.LatestRating("beta", "NimDuel-v0"); got != 1016 {
		t.Errorf("beta elo = %v, want 1016", got)
	}
	if _, ok := reg.Lookup(gameID); ok {
		t.Error("forfeited session still registered")
	}

	// The status guard makes a second terminal transition impossible.
	if err := reg.ForfeitGame(gameID, "beta", "late", 201.0); !errors.Is(err, store.ErrGameNotActive) {
		t.Errorf("second forfeit: got %v, want ErrGameNotActive", err)
	}
}

func TestFailGameSkipsRatings(t *testing.T) {
	reg, st, _ := newRegistry(t)
	gameID := newGame(t, st, "NimDuel-v0", "alpha", "beta")
	if _, err := reg.Get(gameID); err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := reg.FailGame(gameID, "never loaded"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	g, _ := st.GetGame(gameID)
	if g.Status != models.GameFailed {
		t.Fatalf("status = %q, want failed", g.Status)
	}
	if _, ok, _ := st.LatestRating("alpha", "NimDuel-v0"); ok {
		t.Error("failed game moved ratings")
	}
	if _, ok := reg.Lookup(gameID); ok {
		t.Error("failed session still registered")
	}
}

func TestOutcomes(t *testing.T) {
	got := session.Outcomes(map[int]float64{0: 1, 1: -1})
	if got[0] != models.OutcomeWin || got[1] != models.OutcomeLoss {
		t.Errorf("head to head: %v", got)
	}
	got = session.Outcomes(map[int]float64{0: 0, 1: 0})
	if got[0] != models.OutcomeDraw || got[1] != models.OutcomeDraw {
		t.Errorf("flat field: %v", got)
	}
	got = session.Outcomes(map[int]float64{0: 1, 1: 0, 2: -1})
	if got[0] != models.OutcomeWin || got[1] != models.OutcomeWin || got[2] != models.OutcomeLoss {
		t.Errorf("three players: %v", got)
	}
}

func TestTranscript(t *testing.T) {
	encoded := `[[-1,"Take 1-3 tokens."],[0,"3"]]`
	want := "\n[GAME] Take 1-3 tokens.\n[Player 0] 3"
	if got := session.Transcript(encoded); got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
	if got := session.Transcript("[]"); got != "No observation." {
		t.Errorf("empty transcript = %q", got)
	}
	if got := session.Transcript("not json"); got != "No observation." {
		t.Errorf("garbage transcript = %q", got)
	}
}
