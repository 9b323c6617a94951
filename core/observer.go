package core

// Observer is notified once per successful selection.
type Observer interface {
	OnSelected(namespaceID, memberID, displayName string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(namespaceID, memberID, displayName string)

// OnSelected calls f.
func (f ObserverFunc) OnSelected(namespaceID, memberID, displayName string) {
	f(namespaceID, memberID, displayName)
}
