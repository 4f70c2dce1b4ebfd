package logger

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a no-op until Init runs so packages can log from tests.
var Logger = zap.NewNop()

// Field keys shared by every package. Log queries filter on these.
const (
	EventKey     = "event"
	UserIDKey    = "user_id"
	RequestIDKey = "request_id"
)

// Init builds the process logger. Production writes JSON at info level;
// every other environment writes colored console output at debug level.
func Init(environment string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	}

	cfg.InitialFields = map[string]interface{}{"env": environment}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	Logger = built
	zap.ReplaceGlobals(built)
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

// Event tags an entry with a stable machine-readable name such as
// "login_success", used by the security audit queries.
func Event(name string) zap.Field {
	return zap.String(EventKey, name)
}

func UserID(id uuid.UUID) zap.Field {
	return zap.String(UserIDKey, id.String())
}

func RequestID(id string) zap.Field {
	return zap.String(RequestIDKey, id)
}

func WithRequestID(requestID string) *zap.Logger {
	return Logger.With(RequestID(requestID))
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}
