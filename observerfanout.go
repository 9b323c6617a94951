package companion

import "pkt.systems/companion/core"

type observerFanout struct {
	observers []core.Observer
}

func (f observerFanout) OnSelected(namespaceID, memberID, displayName string) {
	for _, observer := range f.observers {
		if observer == nil {
			continue
		}
		observer.OnSelected(namespaceID, memberID, displayName)
	}
}
