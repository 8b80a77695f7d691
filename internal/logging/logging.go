// Package logging routes the standard logger to a rotating file. The terminal
// is owned by the renderer, so nothing may ever log to stderr while the
// session runs.
package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure points the standard logger at path. The browser logs little, so
// retention is kept small.
func Configure(path string) {
	log.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
		MaxAge:     14, // days
		Compress:   true,
	})
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
