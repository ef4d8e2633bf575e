package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// plainLineEncoder renders each log entry as a single append-only line:
//
//	<ISO-8601 UTC> [LEVEL] <message> key=value key=value ...
//
// matching the documented on-disk log format (§6), independent of zap's
// default console/JSON encodings. Context fields attached via
// logger.With(...) are captured by the embedded MapObjectEncoder (which
// supplies the full zapcore.ObjectEncoder surface) and rendered alongside
// each call's own fields.
type plainLineEncoder struct {
	*zapcore.MapObjectEncoder
	pool buffer.Pool
}

func newPlainLineEncoder() zapcore.Encoder {
	return &plainLineEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		pool:             buffer.NewPool(),
	}
}

// Clone deep-copies accumulated context fields so a With()'d logger doesn't
// share mutable state with its parent.
func (e *plainLineEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range e.MapObjectEncoder.Fields {
		clone.Fields[k] = v
	}
	return &plainLineEncoder{MapObjectEncoder: clone, pool: e.pool}
}

func (e *plainLineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := e.pool.Get()

	buf.AppendString(ent.Time.UTC().Format("2006-01-02T15:04:05Z"))
	buf.AppendString(" [")
	buf.AppendString(ent.Level.CapitalString())
	buf.AppendString("] ")
	buf.AppendString(ent.Message)

	for k, v := range e.MapObjectEncoder.Fields {
		buf.AppendString(" ")
		buf.AppendString(k)
		buf.AppendString("=")
		fmt.Fprintf(buf, "%v", v)
	}

	for _, f := range fields {
		buf.AppendString(" ")
		buf.AppendString(f.Key)
		buf.AppendString("=")
		buf.AppendString(fieldValue(f))
	}

	if ent.LoggerName != "" {
		buf.AppendString(" logger=")
		buf.AppendString(ent.LoggerName)
	}

	buf.AppendString("\n")
	return buf, nil
}

func fieldValue(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type:
		return fmt.Sprintf("%d", f.Integer)
	case zapcore.DurationType:
		return time.Duration(f.Integer).String()
	case zapcore.BoolType:
		return fmt.Sprintf("%t", f.Integer == 1)
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
		return fmt.Sprintf("%v", f.Interface)
	default:
		return fmt.Sprintf("%v", f.Interface)
	}
}
