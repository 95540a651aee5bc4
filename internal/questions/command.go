package questions

// Operation names an inbound command.
type Operation string

const (
	OpSubmit           Operation = "submit"
	OpRemove           Operation = "remove"
	OpClearAll         Operation = "clearAll"
	OpSetSpotlight     Operation = "setSpotlight"
	OpClearSpotlight   Operation = "clearSpotlight"
	OpList             Operation = "list"
	OpCurrentSpotlight Operation = "currentSpotlight"
)

// Payload carries command arguments: Text for submit, ID for remove and
// setSpotlight.
type Payload struct {
	Text string `json:"text,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Command is one inbound request against the store.
type Command struct {
	Operation Operation `json:"operation"`
	Payload   *Payload  `json:"payload,omitempty"`
}

// RemoveResult is returned by the remove command.
type RemoveResult struct {
	Removed bool `json:"removed"`
}

// Execute runs cmd against the store. The returned value is what the
// caller should send back: a Question, a []Question, a RemoveResult, the
// spotlight (or an empty object), or nil for clearAll/clearSpotlight.
func (s *Store) Execute(cmd Command) (any, error) {
	var p Payload
	if cmd.Payload != nil {
		p = *cmd.Payload
	}

	switch cmd.Operation {
	case OpSubmit:
		return s.Submit(p.Text)
	case OpRemove:
		if p.ID == "" {
			return nil, validationError(ReasonMalformed, "remove requires payload.id")
		}
		return RemoveResult{Removed: s.Remove(p.ID)}, nil
	case OpClearAll:
		s.ClearAll()
		return nil, nil
	case OpSetSpotlight:
		if p.ID == "" {
			return nil, validationError(ReasonMalformed, "setSpotlight requires payload.id")
		}
		return s.SetSpotlight(p.ID)
	case OpClearSpotlight:
		s.ClearSpotlight()
		return nil, nil
	case OpList:
		return s.List(), nil
	case OpCurrentSpotlight:
		if q, ok := s.CurrentSpotlight(); ok {
			return q, nil
		}
		return struct{}{}, nil
	default:
		return nil, validationError(ReasonMalformed, "unknown operation "+string(cmd.Operation))
	}
}
