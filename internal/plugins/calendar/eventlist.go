package calendar

// eventList is the controller's in-memory event collection: keyed by id for
// merges, with insertion order kept so placement ties stay stable.
type eventList struct {
	order []string
	byID  map[string]Event
}

func newEventList(events []Event) *eventList {
	l := &eventList{byID: make(map[string]Event, len(events))}
	for _, e := range events {
		l.put(e)
	}
	return l
}

func (l *eventList) get(id string) (Event, bool) {
	e, ok := l.byID[id]
	return e, ok
}

// put replaces an existing record in place or appends a new one.
func (l *eventList) put(e Event) {
	if _, ok := l.byID[e.ID]; !ok {
		l.order = append(l.order, e.ID)
	}
	l.byID[e.ID] = e
}

func (l *eventList) remove(id string) {
	if _, ok := l.byID[id]; !ok {
		return
	}
	delete(l.byID, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

func (l *eventList) all() []Event {
	out := make([]Event, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
