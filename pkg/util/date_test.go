package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeRFC1123Z(t *testing.T) {
	got, ok := ParseTime("Thu, 10 Oct 2024 10:10:10 +0000")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Hour() != 10 || got.UTC().Day() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestClockStamp(t *testing.T) {
	got := ClockStamp(time.Date(2024, 1, 2, 9, 5, 7, 0, time.UTC))
	if got != "09:05:07" {
		t.Fatalf("unexpected stamp %s", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := Truncate("héllo world", 5); got != "héllo" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Truncate("abc", 50); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.005); got != 1.01 {
		t.Fatalf("unexpected %v", got)
	}
	if got := Round2(-405.004); got != -405 {
		t.Fatalf("unexpected %v", got)
	}
}
