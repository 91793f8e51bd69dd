package domain

// Event is one message for one recipient. Choices are suggested quick replies.
type Event struct {
	Recipient string   `json:"recipient"`
	Text      string   `json:"text"`
	Choices   []string `json:"choices,omitempty"`
}

// NewEvent creates an event without quick replies
func NewEvent(recipient, text string) Event {
	return Event{Recipient: recipient, Text: text}
}

// NewChoiceEvent creates an event that suggests quick replies
func NewChoiceEvent(recipient, text string, choices ...string) Event {
	return Event{Recipient: recipient, Text: text, Choices: choices}
}

// Events collects output in the order it is produced
type Events []Event

func (e *Events) add(ev Event) {
	*e = append(*e, ev)
}
