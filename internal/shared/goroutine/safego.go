// Package goroutine launches background goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"signet/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine. A panic inside fn is caught and logged
// with its stack trace instead of crashing the process.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
