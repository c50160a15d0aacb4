package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

const serviceName = "sudosos-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide JSON line logger. Request, audit and error
// output all flow through it so collectors see a single stream.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits one JSON line, tagged with the service name unless the
// caller set one.
func LogRequest(entry map[string]any) {
	if entry == nil {
		entry = map[string]any{}
	}
	if _, ok := entry["service"]; !ok {
		entry["service"] = serviceName
	}
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"service":"` + serviceName + `","level":"error","msg":"log entry marshal failed"}`)
		return
	}
	Logger().Println(string(data))
}
