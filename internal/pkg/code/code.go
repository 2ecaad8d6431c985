package code

// Response envelope codes. HTTP status is always 200 for handled errors; the
// envelope code carries the outcome.
const (
	Success           = 200
	ParamErr          = 400
	NotFound          = 404
	Conflict          = 409
	HTTPStatusErr     = 500
	UpstreamErr       = 502
	ServiceUnavailErr = 503
)

const (
	MsgSuccess        = "success"
	MsgParamErr       = "invalid parameter"
	MsgNotFound       = "not found"
	MsgTurnInProgress = "a turn is already in progress for this session"
	MsgUpstreamErr    = "the analyst service returned an error"
	MsgTransportErr   = "the analyst service is unreachable, please retry"
	MsgInternalErr    = "internal error"
	MsgDisabled       = "warehouse is not configured"
	MsgAuditDisabled  = "audit log is not configured"
)
