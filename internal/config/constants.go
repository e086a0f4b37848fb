package config

// SourceFileExt is the extension of source units.
const SourceFileExt = ".ct"

// CompiledFileExt is the extension of encoded, uninstrumented graphs.
const CompiledFileExt = ".ctc"

// FileNames are the configuration files FindConfig looks for, in order.
var FileNames = []string{"calltrace.yaml", "calltrace.yml"}

// Sink kinds.
const (
	SinkText   = "text"
	SinkSQLite = "sqlite"
	SinkGRPC   = "grpc"
)

// DefaultCollectorAddr is where `calltrace serve` listens by default.
const DefaultCollectorAddr = "localhost:7070"
