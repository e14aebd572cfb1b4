// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

var (
	tempLogFile    string
	invalidLogFile string
)

func init() {
	if runtime.GOOS == "windows" {
		tempLogFile = filepath.Join(os.TempDir(), "test.log")
		dir, _ := os.Getwd()
		invalidLogFile = filepath.Join(dir, "log", "test.log")
	} else {
		tempLogFile = filepath.Join(os.TempDir(), "aux-attest-test.log")
		invalidLogFile = "/no/such/dir/test.log"
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		name string
		l    LogLevel
		want string
	}{
		{name: "ValidLogLevel", l: LogLevelWarn, want: "WARN: "},
		{name: "InvalidLogLevel", l: 10, want: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.l.String(); got != tt.want {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func cleanup(t *testing.T, l *CoreLogger) {
	t.Helper()
	if l == nil || l.logFile == nil {
		return
	}
	name := l.logFile.Name()
	l.logFile.Close()
	os.Remove(name)
	for _, f := range mustGlob(t, name+"*") {
		os.Remove(f)
	}
}

func mustGlob(t *testing.T, pattern string) []string {
	t.Helper()
	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	return files
}

func TestRotate(t *testing.T) {
	l, err := New("test", tempLogFile)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cleanup(t, l)

	l.Info(errors.New("pre-rotation"), "seed")
	l.createTime = time.Now().Add(-time.Hour * 24 * 8)

	if err := rotate(l); err != nil {
		t.Errorf("rotate() error = %v", err)
	}

	l.createTime = time.Now()
	l.Info(errors.New("post-rotation"), "seed")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		logName  string
		logLevel LogLevel
		wantErr  bool
	}{
		{name: "ValidLogPath", logName: tempLogFile, logLevel: LogLevelInfo},
		{name: "EmptyFileName", logName: "", logLevel: LogLevelInfo},
		{name: "InvalidLogPath", logName: invalidLogFile, logLevel: LogLevelInfo, wantErr: true},
		{name: "InvalidLogLevel", logName: tempLogFile, logLevel: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New("credential", tt.logName, tt.logLevel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got == nil {
				t.Fatal("New() returned nil logger")
			}
			defer cleanup(t, got)
		})
	}
}

func TestCoreLogger_SetLogLevel(t *testing.T) {
	l, err := New("unseal", tempLogFile)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cleanup(t, l)

	if err := l.SetLogLevel(LogLevelDebug); err != nil {
		t.Errorf("SetLogLevel(valid) error = %v", err)
	}
	if err := l.SetLogLevel(10); err == nil {
		t.Error("SetLogLevel(invalid) expected error, got nil")
	}
}

func TestCoreLogger_Levels(t *testing.T) {
	l, err := New("keystore", tempLogFile, LogLevelTrace)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cleanup(t, l)

	l.Fatal(errors.New("fatal"), "x")
	l.Error(errors.New("error"), "x")
	l.Warn(errors.New("warn"), "x")
	l.Info(errors.New("info"), "x")
	l.Debug(errors.New("debug"), "x")
	l.Trace(errors.New("trace"), "x")

	var nilLogger *CoreLogger
	nilLogger.Info(errors.New("noop"), "x")
}
