package utils

import (
	"fmt"
	"runtime/debug"

	"golang-stock-calls/pkg/logger"
)

// GoSafe runs fn in a goroutine and logs any panic it raises.
func GoSafe(log *logger.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Recovered from panic",
					logger.StringField("panic", fmt.Sprint(r)),
					logger.StringField("stack", string(debug.Stack())))
			}
		}()
		fn()
	}()
}
