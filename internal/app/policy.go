package app

import "github.com/dkeye/Messenger/internal/domain"

// Policy decides who may touch a live call beyond accepting it.
// Accept itself is always restricted to the receiver by the call directory.
type Policy interface {
	CanSignal(rec *domain.CallRecord, who domain.Username) bool
	CanEnd(rec *domain.CallRecord, who domain.Username) bool
	CanObserve(rec *domain.CallRecord, who domain.Username) bool
}

// SimplePolicy lets both participants signal, end and observe a call.
type SimplePolicy struct{}

func (SimplePolicy) CanSignal(rec *domain.CallRecord, who domain.Username) bool {
	return rec.IsParticipant(who)
}

func (SimplePolicy) CanEnd(rec *domain.CallRecord, who domain.Username) bool {
	return rec.IsParticipant(who)
}

func (SimplePolicy) CanObserve(rec *domain.CallRecord, who domain.Username) bool {
	return rec.IsParticipant(who)
}
