package archivist

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/voodooEntity/synapse/src/system/interfaces"
)

const (
	LEVEL_DEBUG   = 1
	LEVEL_INFO    = 2
	LEVEL_WARNING = 3
	LEVEL_ERROR   = 4
	LEVEL_FATAL   = 5
)

// Constants for granular debug levels
const (
	DEBUG_LEVEL_TRACE  = iota + 1 // For tracing execution flow
	DEBUG_LEVEL_INFO              // For informational debug messages
	DEBUG_LEVEL_DETAIL            // For more detailed output
	DEBUG_LEVEL_DUMP              // For dumping entire data structures
	DEBUG_LEVEL_MAX               // The highest, most detailed level
)

type Archivist struct {
	logLevel   int
	debugLevel int
	logger     interfaces.LoggerInterface
}

type Config struct {
	Logger     interfaces.LoggerInterface
	LogLevel   int
	DebugLevel int
}

func New(conf *Config) *Archivist {
	archivist := &Archivist{}

	// in case no logger is given we gonne default
	// to logger to stdout
	archivist.SetLogger(conf.Logger)

	// set the provided loglevel
	archivist.SetLogLevel(conf.LogLevel)

	// debug level verbosity only matters if the log level is debug
	if conf.LogLevel == LEVEL_DEBUG {
		archivist.SetDebugLevel(conf.DebugLevel)
	}

	return archivist
}

func (a *Archivist) store(stype string, message string, params []interface{}) {
	// dispatch the caller file+line number
	_, file, line, _ := runtime.Caller(2)
	arrPackagePath := strings.Split(file, "/")
	packageFile := arrPackagePath[len(arrPackagePath)-1]

	logLine := time.Now().Format("2006-01-02 15:04:05") + "|" + stype + "|" + packageFile + "#" + strconv.Itoa(line) + "|" + message
	if 0 < len(params) {
		logLine = logLine + "|" + fmt.Sprintf("%+v", params)
	}

	a.logger.Println(logLine)
}

func (a *Archivist) Debug(level int, message string, params ...interface{}) {
	if a.logLevel <= LEVEL_DEBUG && level <= a.debugLevel {
		a.store("debug", message, params)
	}
}

func (a *Archivist) Info(message string, params ...interface{}) {
	if a.logLevel <= LEVEL_INFO {
		a.store("info", message, params)
	}
}

func (a *Archivist) Warning(message string, params ...interface{}) {
	if a.logLevel <= LEVEL_WARNING {
		a.store("warning", message, params)
	}
}

func (a *Archivist) Error(message string, params ...interface{}) {
	if a.logLevel <= LEVEL_ERROR {
		a.store("error", message, params)
	}
}

func (a *Archivist) Fatal(message string, params ...interface{}) {
	a.store("fatal", message, params)
}

func (a *Archivist) SetLogLevel(logLevel int) {
	// check for non initialized log level first
	if 0 == logLevel {
		logLevel = LEVEL_WARNING
	}

	if logLevel < LEVEL_DEBUG || logLevel > LEVEL_FATAL {
		a.Error("Given LOG_LEVEL is unknown, defaulting to LEVEL_WARNING provided was: ", logLevel)
		logLevel = LEVEL_WARNING
	}
	a.logLevel = logLevel
}

func (a *Archivist) SetDebugLevel(level int) {
	if level < 0 {
		level = 0
	}
	a.debugLevel = level
}

func (a *Archivist) SetLogger(logger interfaces.LoggerInterface) {
	// if logger is nil
	if nil == logger {
		logger = log.New(os.Stdout, "", 0)
	}
	a.logger = logger
}
