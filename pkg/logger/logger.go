// Package logger is a thin leveled wrapper over the standard log package.
// Debug output is off unless LOG_DEBUG is set, so the scheduler's per-tick
// chatter stays out of production logs.
package logger

import (
	"log"
	"os"
	"strconv"
)

var debugEnabled bool

// Init configures logging flags and debug gating. Called once from main.
func Init() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	debugEnabled, _ = strconv.ParseBool(os.Getenv("LOG_DEBUG"))
}

func Infof(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

func Warnf(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

func Errorf(format string, v ...any) {
	log.Printf("[ERROR] "+format, v...)
}

func Debugf(format string, v ...any) {
	if !debugEnabled {
		return
	}
	log.Printf("[DEBUG] "+format, v...)
}

func Fatalf(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}
