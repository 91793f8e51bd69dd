package domain

// Vote is a ballot cast by a player against another seat.
type Vote struct {
	VoterID  int `json:"voterId"`
	TargetID int `json:"targetId"`
}

// Vote records nothing yet. Tallying, elimination and the follow-up
// checkState belong here once day voting exists.
func (g *Game) Vote(handle string, targetID int) ([]Event, error) {
	if _, err := g.playerByHandle(handle); err != nil {
		return nil, err
	}
	return nil, nil
}
