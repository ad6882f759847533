package app

import "github.com/dkeye/Conf/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose connection refused a frame.
type Policy interface {
	OnBackPressure(room domain.RoomID, user domain.UserID, err error) BackpressureAction
}

// SimplePolicy evicts slow consumers so one client cannot stall a room.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, domain.UserID, error) BackpressureAction {
	return KickMember
}

// TolerantPolicy only drops the frame.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.RoomID, domain.UserID, error) BackpressureAction {
	return DropFrame
}
