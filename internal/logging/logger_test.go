package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogFormat_JSON(t *testing.T) {
	defer SetLogFormat(FormatText)

	if err := SetLogFormat(FormatJSON); err != nil {
		t.Fatalf("SetLogFormat: %v", err)
	}
	if _, ok := GetLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", GetLogger().Formatter)
	}

	var buf bytes.Buffer
	agg := GetAggregationLogger()
	out := agg.Out
	agg.SetOutput(&buf)
	defer agg.SetOutput(out)

	agg.WithField("bin", 3).Warn("empty bin")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry[aggregationMsgKey] != "empty bin" || entry["bin"] != float64(3) {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetLogFormat_Text(t *testing.T) {
	if err := SetLogFormat(FormatText); err != nil {
		t.Fatalf("SetLogFormat: %v", err)
	}
	f, ok := GetLogger().Formatter.(*logrus.TextFormatter)
	if !ok || !f.FullTimestamp {
		t.Fatalf("expected full timestamp text formatter, got %T", GetLogger().Formatter)
	}
}

func TestSetLogFormat_Unknown(t *testing.T) {
	if err := SetLogFormat("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, ok := GetLogger().Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("formatter should be unchanged after an error")
	}
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevel("info")

	if err := SetLogLevel("debug"); err != nil {
		t.Fatalf("SetLogLevel: %v", err)
	}
	if GetLogger().GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", GetLogger().GetLevel())
	}
	if err := SetAggregationLogLevel("loud"); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
}
