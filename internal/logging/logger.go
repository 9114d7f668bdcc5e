package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// aggregationMsgKey keeps aggregation diagnostics apart from the driver's
// messages when both loggers share stdout.
const aggregationMsgKey = "aggregation_msg"

var logger *logrus.Logger
var aggregationLogger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Per-bin diagnostics of the aggregators; noisy, so it stays at warn
	// unless asked for.
	aggregationLogger = logrus.New()
	aggregationLogger.SetOutput(os.Stdout)
	aggregationLogger.SetLevel(logrus.WarnLevel)

	if err := SetLogFormat(FormatText); err != nil {
		panic(err)
	}
}

func GetLogger() *logrus.Logger {
	return logger
}

func GetAggregationLogger() *logrus.Logger {
	return aggregationLogger
}

func SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(logLevel)
	return nil
}

func SetAggregationLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	aggregationLogger.SetLevel(logLevel)
	return nil
}

// SetLogFormat switches both loggers to text or JSON output.
func SetLogFormat(format string) error {
	driver, aggregation, err := formatters(format)
	if err != nil {
		return err
	}
	SetFormatter(driver)
	aggregationLogger.SetFormatter(aggregation)
	return nil
}

func SetFormatter(formatter logrus.Formatter) {
	logger.SetFormatter(formatter)
}

func formatters(format string) (logrus.Formatter, logrus.Formatter, error) {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "time",
		logrus.FieldKeyLevel: "level",
		logrus.FieldKeyMsg:   aggregationMsgKey,
	}

	switch format {
	case FormatText:
		return &logrus.TextFormatter{FullTimestamp: true},
			&logrus.TextFormatter{FullTimestamp: true, FieldMap: fieldMap},
			nil
	case FormatJSON:
		return &logrus.JSONFormatter{},
			&logrus.JSONFormatter{FieldMap: fieldMap},
			nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want %q or %q)", format, FormatText, FormatJSON)
	}
}
