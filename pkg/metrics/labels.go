package metrics

// Label constants.
const (
	LblKind    = "kind"
	LblResult  = "result"
	LblSQLType = "sql_type"
	LblEvent   = "event"
	LblPath    = "path"
	LblMethod  = "method"
	LblCode    = "code"
)
