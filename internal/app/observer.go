package app

// Observer receives call lifecycle and signaling events, typically for metrics.
type Observer interface {
	CallInitiated()
	CallAccepted()
	CallEnded()
	CallsExpired(n int)
	SignalWrite(kind string)
	SessionsReaped(n int)
	ActiveSessions(n int)
}

type NopObserver struct{}

func (NopObserver) CallInitiated()     {}
func (NopObserver) CallAccepted()      {}
func (NopObserver) CallEnded()         {}
func (NopObserver) CallsExpired(int)   {}
func (NopObserver) SignalWrite(string) {}
func (NopObserver) SessionsReaped(int) {}
func (NopObserver) ActiveSessions(int) {}
