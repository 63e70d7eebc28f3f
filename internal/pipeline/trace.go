package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// trace forwards one query's pipeline events, in emission order, to the
// caller's event channel and mirrors them to the service logger.
type trace struct {
	ctx     context.Context
	out     chan<- Event
	logger  *zap.Logger
	queryID string
}

// log emits a LogEvent. Events are dropped once the caller's context is
// canceled; the mirror to the service logger still happens.
func (t *trace) log(stage Stage, level Level, msg string, fields map[string]any) {
	t.mirror(stage, level, msg, fields)
	t.send(Event{Type: EventLog, Log: &LogEvent{
		Time:    time.Now(),
		Level:   level,
		Stage:   stage,
		Message: msg,
		Fields:  fields,
	}})
}

// send delivers an event unless the consumer is gone. Returns false when the
// context was canceled before delivery.
func (t *trace) send(ev Event) bool {
	select {
	case <-t.ctx.Done():
		return false
	case t.out <- ev:
		return true
	}
}

func (t *trace) mirror(stage Stage, level Level, msg string, fields map[string]any) {
	if t.logger == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+2)
	zf = append(zf, zap.String("query_id", t.queryID), zap.String("stage", string(stage)))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	switch level {
	case LevelDebug:
		t.logger.Debug(msg, zf...)
	case LevelWarn:
		t.logger.Warn(msg, zf...)
	case LevelError:
		t.logger.Error(msg, zf...)
	default:
		t.logger.Info(msg, zf...)
	}
}
