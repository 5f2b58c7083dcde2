package code

// 错误码消息映射（对外返回英文，供客户端直接展示或映射）
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "success",
	ErrUnknown:          "internal server error",
	ErrBind:             "invalid request body",
	ErrValidation:       "request validation failed",
	ErrTokenInvalid:     "invalid authentication token",
	ErrTooManyRequests:  "too many requests",
	ErrPermissionDenied: "current role is not allowed to perform this operation",

	// 用户相关错误码
	ErrUserNotFound:          "user not found",
	ErrUserAlreadyExist:      "user already exists",
	ErrUserPasswordIncorrect: "incorrect password",

	// 楼栋与住户相关错误码
	ErrBuildingNotFound:  "building not found",
	ErrApartmentNotFound: "apartment not found",
	ErrResidentNotFound:  "resident not found",
	ErrDoormanNotFound:   "doorman not found",
	ErrNoResidents:       "apartment has no residents to call",

	// 呼叫相关错误码
	ErrCallNotFound:    "call not found",
	ErrConflictingCall: "apartment already has an active call",
	ErrCallNotRinging:  "call is not ringing",
	ErrCallTerminated:  "call already terminated",
	ErrNotAParticipant: "user is not a participant of this call",

	// 值班相关错误码
	ErrNoActiveShift:    "no active shift",
	ErrAlreadyOnDuty:    "doorman already has an active shift",
	ErrBuildingOccupied: "building already has a doorman on duty",

	// 媒体令牌相关错误码
	ErrMissingCredentials: "media token credentials not configured",
	ErrMediaTokenExpired:  "media token expired",
	ErrMediaTokenScope:    "media token does not match channel or user",

	// 通知相关错误码
	ErrJobNotFound:        "notification job not found",
	ErrChannelUnavailable: "recipient has no available delivery channel",

	// 数据库相关错误码
	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrTooManyRequests:  StatusTooManyRequests,
	ErrPermissionDenied: StatusForbidden,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	// 楼栋与住户相关错误码
	ErrBuildingNotFound:  StatusNotFound,
	ErrApartmentNotFound: StatusNotFound,
	ErrResidentNotFound:  StatusNotFound,
	ErrDoormanNotFound:   StatusNotFound,
	ErrNoResidents:       StatusNotFound,

	// 呼叫相关错误码
	ErrCallNotFound:    StatusNotFound,
	ErrConflictingCall: StatusConflict,
	ErrCallNotRinging:  StatusConflict,
	ErrCallTerminated:  StatusConflict,
	ErrNotAParticipant: StatusForbidden,

	// 值班相关错误码
	ErrNoActiveShift:    StatusNotFound,
	ErrAlreadyOnDuty:    StatusConflict,
	ErrBuildingOccupied: StatusConflict,

	// 媒体令牌相关错误码
	ErrMissingCredentials: StatusInternalServerError,
	ErrMediaTokenExpired:  StatusUnauthorized,
	ErrMediaTokenScope:    StatusUnauthorized,

	// 通知相关错误码
	ErrJobNotFound:        StatusNotFound,
	ErrChannelUnavailable: StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "unknown error"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
