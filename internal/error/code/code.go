package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrPermissionDenied - 403: 当前角色无权执行该操作.
	ErrPermissionDenied
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
)

// 楼栋与住户相关错误码 (102xxx).
const (
	// ErrBuildingNotFound - 404: 楼栋不存在.
	ErrBuildingNotFound int = iota + 102000
	// ErrApartmentNotFound - 404: 公寓不存在.
	ErrApartmentNotFound
	// ErrResidentNotFound - 404: 住户不存在.
	ErrResidentNotFound
	// ErrDoormanNotFound - 404: 门卫不存在.
	ErrDoormanNotFound
	// ErrNoResidents - 404: 公寓没有可呼叫的住户.
	ErrNoResidents
)

// 呼叫相关错误码 (104xxx).
const (
	// ErrCallNotFound - 404: 呼叫记录不存在.
	ErrCallNotFound int = iota + 104000
	// ErrConflictingCall - 409: 该公寓已有进行中的呼叫.
	ErrConflictingCall
	// ErrCallNotRinging - 409: 呼叫已不在振铃状态.
	ErrCallNotRinging
	// ErrCallTerminated - 409: 呼叫已终止.
	ErrCallTerminated
	// ErrNotAParticipant - 403: 用户不是该呼叫的参与者.
	ErrNotAParticipant
)

// 值班相关错误码 (105xxx).
const (
	// ErrNoActiveShift - 404: 没有进行中的值班.
	ErrNoActiveShift int = iota + 105000
	// ErrAlreadyOnDuty - 409: 门卫已在值班中.
	ErrAlreadyOnDuty
	// ErrBuildingOccupied - 409: 楼栋已有在岗门卫.
	ErrBuildingOccupied
)

// 媒体令牌相关错误码 (106xxx).
const (
	// ErrMissingCredentials - 500: 签名密钥未配置.
	ErrMissingCredentials int = iota + 106000
	// ErrMediaTokenExpired - 401: 媒体令牌已过期.
	ErrMediaTokenExpired
	// ErrMediaTokenScope - 401: 媒体令牌与频道或用户不匹配.
	ErrMediaTokenScope
)

// 通知相关错误码 (107xxx).
const (
	// ErrJobNotFound - 404: 投递任务不存在.
	ErrJobNotFound int = iota + 107000
	// ErrChannelUnavailable - 400: 收件人没有可用的投递渠道.
	ErrChannelUnavailable
)

// 数据库相关错误码 (108xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 108000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
