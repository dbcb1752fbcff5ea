package dispatcher

import (
	"github.com/dshills/cmdtree/internal/logging"
)

// PreDispatchHook is called after a call resolves and before its arguments
// are decoded. Returning false cancels the dispatch with ErrCancelled.
type PreDispatchHook interface {
	PreDispatch(call *Call) bool
}

// PostDispatchHook is called after the handler ran or failed. It is not
// called for input that did not resolve or for cancelled calls.
type PostDispatchHook interface {
	PostDispatch(call *Call, res Result, err error)
}

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(call *Call) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(call *Call) bool {
	return f(call)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(call *Call, res Result, err error)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(call *Call, res Result, err error) {
	f(call, res, err)
}

// LoggingHook logs every resolved call and its outcome.
type LoggingHook struct {
	logger *logging.Logger
}

// NewLoggingHook creates a logging hook writing to l.
func NewLoggingHook(l *logging.Logger) *LoggingHook {
	if l == nil {
		l = logging.Null
	}
	return &LoggingHook{logger: l.WithComponent("dispatch")}
}

// PreDispatch logs the call being dispatched.
func (h *LoggingHook) PreDispatch(call *Call) bool {
	h.logger.WithField("command", call.Command()).Debug("dispatching with %d args", call.Arity())
	return true
}

// PostDispatch logs the dispatch result.
func (h *LoggingHook) PostDispatch(call *Call, res Result, err error) {
	log := h.logger.WithFields(map[string]any{
		"command":     call.Command(),
		"dispatch_id": res.ID.String(),
		"duration":    res.Duration,
	})
	if err != nil {
		log.WithField("kind", KindName(err)).Warn("%v", err)
		return
	}
	log.Debug("ok")
}

// FilterHook cancels calls for which Allow returns false.
type FilterHook struct {
	Allow func(call *Call) bool
}

// PreDispatch implements PreDispatchHook.
func (h *FilterHook) PreDispatch(call *Call) bool {
	if h.Allow != nil {
		return h.Allow(call)
	}
	return true
}
