package services

import "errors"

// 业务哨兵错误，由控制器映射为统一错误码
var (
	// 呼叫相关
	ErrCallNotFound    = errors.New("call not found")
	ErrConflictingCall = errors.New("apartment already has an active call")
	ErrCallNotRinging  = errors.New("call is not ringing")
	ErrCallTerminated  = errors.New("call already terminated")
	ErrNotAParticipant = errors.New("user is not a participant of this call")
	ErrNoResidents     = errors.New("apartment has no residents to call")

	// 值班相关
	ErrNoActiveShift    = errors.New("no active shift")
	ErrAlreadyOnDuty    = errors.New("doorman already has an active shift")
	ErrBuildingOccupied = errors.New("building already has a doorman on duty")

	// 基础资源
	ErrBuildingNotFound  = errors.New("building not found")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrResidentNotFound  = errors.New("resident not found")
	ErrDoormanNotFound   = errors.New("doorman not found")
	ErrJobNotFound       = errors.New("notification job not found")
)
