package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ugcmarket/ugc-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic. Используется для best-effort
// побочных эффектов после коммита транзакции: уведомлений и событий outbox.
// Падение такой горутины логируется и не влияет на результат запроса.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.Errorf("panic в горутине: %v\n%s", r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	SafeGo(func() { fn(ctx) })
}
