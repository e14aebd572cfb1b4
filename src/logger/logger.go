// Copyright lowRISC contributors (OpenTitan project).
// Licensed under the Apache License, Version 2.0, see LICENSE for details.
// SPDX-License-Identifier: Apache-2.0

// Package logger implements a leveled logging sink tagged by component name.
// In this module only the auxctl command constructs a logger; the core
// packages (credential, unseal, keystore, measurement) do not log.
//
// Output goes to console and, optionally, to a rotating log file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const (
	timestampFormat = "20060102150405"
)

type LogLevel int

const (
	LogLevelFatal LogLevel = iota
	LogLevelPanic
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelFatal:
		return "FATAL:"
	case LogLevelPanic:
		return "PANIC:"
	case LogLevelError:
		return "ERROR:"
	case LogLevelWarn:
		return "WARN: "
	case LogLevelInfo:
		return "INFO: "
	case LogLevelDebug:
		return "DEBUG:"
	case LogLevelTrace:
		return "TRACE:"
	default:
		return fmt.Sprintf("%d", int(l))
	}
}

// CoreLogger is a leveled logger tagged with the attestation-core component
// that owns it (e.g. "credential", "unseal", "keystore"), so multiplexed
// output can be attributed without structured-logging machinery.
type CoreLogger struct {
	component string

	fatalLog *log.Logger
	errorLog *log.Logger
	warnLog  *log.Logger
	infoLog  *log.Logger
	debugLog *log.Logger
	traceLog *log.Logger

	logFile    *os.File
	createTime time.Time
	mu         sync.Mutex
	refCount   int
}

var (
	level   LogLevel
	loggers = make(map[string]*CoreLogger)
)

// rotate archives the current log file once it is older than a week.
func rotate(l *CoreLogger) error {
	if time.Since(l.createTime) < time.Hour*24*7 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name := l.logFile.Name()
	archived := filepath.Join(name + "_" + time.Now().Format(timestampFormat))
	archivedFile, err := os.Create(archived)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", archived, err)
	}
	defer archivedFile.Close()

	l.logFile.Seek(0, 0)
	info, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("cannot stat log file: %w", err)
	}

	buf := make([]byte, info.Size())
	if _, err := l.logFile.Read(buf); err != nil && err != io.EOF {
		return fmt.Errorf("cannot read log file: %w", err)
	}
	if _, err := archivedFile.Write(buf); err != nil {
		return fmt.Errorf("cannot write archived log: %w", err)
	}
	if err := os.Truncate(name, 0); err != nil {
		return fmt.Errorf("cannot truncate log file: %w", err)
	}

	l.createTime = time.Now()
	return nil
}

func prefix(component string, err error, lvl LogLevel) string {
	now := time.Now()
	s := fmt.Sprintf("%s %s [%s] %s", now.Format(timestampFormat), lvl.String(), component, err.Error())

	pc, path, line, ok := runtime.Caller(2)
	if ok {
		details := runtime.FuncForPC(pc)
		_, file := filepath.Split(path)
		s = fmt.Sprintf("%s %s [%s] [%s()] [%s] [%d] %s", now.Format(timestampFormat), lvl.String(),
			component, details.Name(), file, line, err.Error())
	}
	return s
}

// New creates a logger for the given component. If logName is empty, output
// goes to stderr only; otherwise it is additionally written to the named,
// weekly-rotated file.
func New(component, logName string, logLevel ...LogLevel) (*CoreLogger, error) {
	level = LogLevelInfo
	if len(logLevel) > 0 {
		if logLevel[0] < LogLevelFatal || logLevel[0] > LogLevelTrace {
			return nil, fmt.Errorf("invalid log level %d", logLevel[0])
		}
		level = logLevel[0]
	}

	if logName == "" {
		wrt := os.Stderr
		return &CoreLogger{
			component:  component,
			fatalLog:   log.New(wrt, "", 0),
			errorLog:   log.New(wrt, "", 0),
			warnLog:    log.New(wrt, "", 0),
			infoLog:    log.New(wrt, "", 0),
			debugLog:   log.New(wrt, "", 0),
			traceLog:   log.New(wrt, "", 0),
			createTime: time.Now(),
		}, nil
	}

	if existing, ok := loggers[logName]; ok {
		existing.refCount++
		return existing, nil
	}

	if _, err := os.Stat(filepath.Dir(logName)); os.IsNotExist(err) {
		return nil, fmt.Errorf("log directory %s does not exist", filepath.Dir(logName))
	}

	logFile, err := os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot create log file: %w", err)
	}

	wrt := io.MultiWriter(os.Stderr, logFile)
	l := &CoreLogger{
		component:  component,
		fatalLog:   log.New(wrt, "", 0),
		errorLog:   log.New(wrt, "", 0),
		warnLog:    log.New(wrt, "", 0),
		infoLog:    log.New(wrt, "", 0),
		debugLog:   log.New(wrt, "", 0),
		traceLog:   log.New(wrt, "", 0),
		logFile:    logFile,
		createTime: time.Now(),
		refCount:   1,
	}
	loggers[logName] = l
	return l, nil
}

func (l *CoreLogger) Close() error {
	if l == nil {
		return fmt.Errorf("non-existing logger")
	}
	if l.logFile == nil {
		return nil
	}

	l.refCount--
	if l.refCount > 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	name := l.logFile.Name()
	if err := l.logFile.Close(); err != nil {
		return fmt.Errorf("cannot close log file: %w", err)
	}
	info, err := os.Stat(name)
	if err != nil {
		return fmt.Errorf("cannot stat log file: %w", err)
	}
	if info.Size() == 0 {
		if err := os.Remove(name); err != nil {
			return fmt.Errorf("cannot remove empty log file: %w", err)
		}
	}
	l.logFile = nil
	return nil
}

func (l *CoreLogger) SetLogLevel(lvl LogLevel) error {
	if lvl < LogLevelFatal || lvl > LogLevelTrace {
		return fmt.Errorf("invalid log level %d", lvl)
	}
	level = lvl
	return nil
}

func (l *CoreLogger) Fatal(err error, args ...interface{}) { l.emit(LogLevelFatal, err, args) }
func (l *CoreLogger) Error(err error, args ...interface{}) { l.emit(LogLevelError, err, args) }
func (l *CoreLogger) Warn(err error, args ...interface{})  { l.emit(LogLevelWarn, err, args) }
func (l *CoreLogger) Info(err error, args ...interface{})  { l.emit(LogLevelInfo, err, args) }
func (l *CoreLogger) Debug(err error, args ...interface{}) { l.emit(LogLevelDebug, err, args) }
func (l *CoreLogger) Trace(err error, args ...interface{}) { l.emit(LogLevelTrace, err, args) }

func (l *CoreLogger) emit(lvl LogLevel, err error, args []interface{}) {
	if l == nil || level < lvl {
		return
	}
	s := prefix(l.component, err, lvl)

	sink := l.infoLog
	switch lvl {
	case LogLevelFatal:
		sink = l.fatalLog
	case LogLevelError:
		sink = l.errorLog
	case LogLevelWarn:
		sink = l.warnLog
	case LogLevelDebug:
		sink = l.debugLog
	case LogLevelTrace:
		sink = l.traceLog
	}

	if l.logFile == nil {
		fmt.Fprintln(os.Stderr, s, fmt.Sprint(args...))
		return
	}
	sink.Println(s, args)
	rotate(l)
}
