package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // connection string for the database
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, empty means no filter
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry, "stdout" prints spans and metrics
	NatsURL           string // NATS server used as result store
	NatsBucket        string // key value bucket for race results
	ResultStore       string // where race results are kept (db, nats)
	MaxDBConns        int    // max connections of the database pool
)

const (
	ResultStoreDB   = "db"
	ResultStoreNats = "nats"
)

const StdoutEndpoint = "stdout"
