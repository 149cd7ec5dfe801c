package multicast

// Filter selects the messages delivered to a subscription. It is evaluated
// once per publish and is immutable for the life of the subscription.
//
// A nil or empty Sources/Destinations slice matches any value. A nil Tags
// slice applies no tag constraint; otherwise at least one message tag must be
// listed. Predicate, if set, is applied last.
type Filter struct {
	Sources      []string
	Destinations []string
	Tags         []string
	Predicate    func(Message) bool
}

// Matches reports whether the filter selects the given message.
func (f Filter) Matches(msg Message) bool {
	if !matchIdent(f.Sources, msg.Source) {
		return false
	}
	if msg.Destination != "" && msg.Destination != DestAll && !matchIdent(f.Destinations, msg.Destination) {
		return false
	}
	if f.Tags != nil && !matchTags(f.Tags, msg.Tags) {
		return false
	}
	if f.Predicate != nil && !f.Predicate(msg) {
		return false
	}
	return true
}

func matchIdent(allowed []string, v string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func matchTags(allowed, tags []string) bool {
	for _, t := range tags {
		for _, a := range allowed {
			if a == t {
				return true
			}
		}
	}
	return false
}
