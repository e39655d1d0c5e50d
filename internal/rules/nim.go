package rules

import (
	"fmt"
	"regexp"
	"strconv"
)

const nimStartTokens = 21

var nimMovePattern = regexp.MustCompile(`-?\d+`)

// nimEngine is a two-player take-away game: the pile starts at 21 tokens and
// players alternate removing 1-3. In the standard game taking the last token
// wins; in the misere variant it loses. An unparseable or illegal move ends
// the game immediately against the mover.
type nimEngine struct {
	envID   string
	misere  bool
	pile    int
	current int
	done    bool
	reason  string
	rewards map[int]float64
	outbox  [2][]Message
}

func newNim(envID string, misere bool) *nimEngine {
	return &nimEngine{envID: envID, misere: misere}
}

func (n *nimEngine) Reset() error {
	n.pile = nimStartTokens
	n.current = 0
	n.done = false
	n.reason = ""
	n.rewards = nil
	n.outbox = [2][]Message{}

	goal := "Whoever takes the last token wins."
	if n.misere {
		goal = "Whoever takes the last token loses."
	}
	for pid := 0; pid < 2; pid++ {
		n.send(pid, fmt.Sprintf(
			"You are Player %d in %s. The pile holds %d tokens. On your turn remove 1, 2 or 3 tokens by replying with a number. %s",
			pid, n.envID, n.pile, goal))
	}
	n.send(n.current, "It is your turn. How many tokens do you take?")
	return nil
}

func (n *nimEngine) EnvID() string      { return n.envID }
func (n *nimEngine) NumPlayers() int    { return 2 }
func (n *nimEngine) CurrentPlayer() int { return n.current }
func (n *nimEngine) Done() bool         { return n.done }

func (n *nimEngine) Observation(playerID int) []Message {
	if playerID < 0 || playerID > 1 {
		return nil
	}
	msgs := n.outbox[playerID]
	n.outbox[playerID] = nil
	return msgs
}

func (n *nimEngine) ForceObservation(playerID int) []Message {
	msgs := n.Observation(playerID)
	if n.done {
		msgs = append(msgs, Message{SenderID: GameSenderID, Text: "Game over: " + n.reason})
	}
	return msgs
}

func (n *nimEngine) Step(action string) (bool, StepInfo, error) {
	if n.done {
		return true, StepInfo{Reason: n.reason}, nil
	}

	mover := n.current
	other := 1 - mover

	take, ok := parseNimMove(action)
	if !ok || take < 1 || take > 3 || take > n.pile {
		// Offender forfeits; the opponent is not credited with a played win.
		n.done = true
		n.reason = fmt.Sprintf("Player %d made an invalid move (%q).", mover, action)
		n.rewards = map[int]float64{mover: -1, other: 0}
		n.broadcast("Game over: " + n.reason)
		return true, StepInfo{Reason: n.reason}, nil
	}

	n.pile -= take
	n.outbox[other] = append(n.outbox[other], Message{SenderID: mover, Text: action})
	n.broadcast(fmt.Sprintf("Player %d took %d token(s). %d remain.", mover, take, n.pile))

	if n.pile == 0 {
		winner := other
		if !n.misere {
			winner = mover
		}
		n.finish(winner, fmt.Sprintf("Player %d took the last token.", mover))
		return true, StepInfo{Reason: n.reason}, nil
	}

	n.current = other
	n.send(n.current, "It is your turn. How many tokens do you take?")
	return false, StepInfo{}, nil
}

func (n *nimEngine) Close() map[int]float64 {
	return n.rewards
}

func (n *nimEngine) finish(winner int, reason string) {
	n.done = true
	n.reason = reason
	n.rewards = map[int]float64{winner: 1, 1 - winner: -1}
	n.broadcast("Game over: " + reason)
}

func (n *nimEngine) send(pid int, text string) {
	n.outbox[pid] = append(n.outbox[pid], Message{SenderID: GameSenderID, Text: text})
}

func (n *nimEngine) broadcast(text string) {
	for pid := 0; pid < 2; pid++ {
		n.send(pid, text)
	}
}

// parseNimMove extracts the first integer in the action text.
func parseNimMove(action string) (int, bool) {
	m := nimMovePattern.FindString(action)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}
