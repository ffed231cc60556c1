package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

// Init 전역 로거 초기화. env가 production이면 JSON 인코더,
// 그 외에는 사람이 읽기 쉬운 개발용 인코더를 쓴다.
// level은 출력 레벨 (debug/info/warn/error, 기본 info).
func Init(env, level string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = built.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init 전에 호출돼도 죽지 않도록 no-op 로거로 대체한다
func l() *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// Sync 버퍼 플러시. 종료 직전에 호출한다.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debug(msg string, keysAndValues ...interface{}) {
	l().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	l().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	l().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	l().Errorw(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	l().Fatalw(msg, keysAndValues...)
}
