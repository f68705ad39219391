package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Fatal(msg string, fields ...any)
	With(key string, value any) Logger
	WithComponent(component string) Logger
}

type Config struct {
	Level     string
	Format    string
	Output    string
	File      string
	Component string
}

type ZLogger struct {
	logger zerolog.Logger
}

var (
	baseMu     sync.RWMutex
	baseConfig = Config{Level: "info", Format: "console", Output: "stdout"}
	baseOutput io.Writer
)

func New(config Config) Logger {
	level := parseLevel(config.Level)
	zerolog.SetGlobalLevel(level)

	output := createOutput(config)
	return &ZLogger{logger: build(config, output)}
}

// NewWithWriter monta um logger JSON sobre um writer arbitrário.
func NewWithWriter(w io.Writer, component string) Logger {
	l := zerolog.New(w).With().Timestamp().Logger()
	if component != "" {
		l = l.With().Str("component", component).Logger()
	}
	return &ZLogger{logger: l}
}

func NewDefault() Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return &ZLogger{logger: build(baseConfig, currentOutput())}
}

// NewForComponent herda nível, formato e saída definidos em Init.
func NewForComponent(component string) Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()

	cfg := baseConfig
	cfg.Component = component
	return &ZLogger{logger: build(cfg, currentOutput())}
}

func (l *ZLogger) Debug(msg string, fields ...any) {
	event := l.logger.Debug()
	l.addFields(event, fields...)
	event.Msg(msg)
}

func (l *ZLogger) Info(msg string, fields ...any) {
	event := l.logger.Info()
	l.addFields(event, fields...)
	event.Msg(msg)
}

func (l *ZLogger) Warn(msg string, fields ...any) {
	event := l.logger.Warn()
	l.addFields(event, fields...)
	event.Msg(msg)
}

func (l *ZLogger) Error(msg string, fields ...any) {
	event := l.logger.Error()
	l.addFields(event, fields...)
	event.Msg(msg)
}

func (l *ZLogger) Fatal(msg string, fields ...any) {
	event := l.logger.Fatal()
	l.addFields(event, fields...)
	event.Msg(msg)
}

func (l *ZLogger) With(key string, value any) Logger {
	return &ZLogger{logger: l.logger.With().Interface(key, value).Logger()}
}

func (l *ZLogger) WithComponent(component string) Logger {
	return &ZLogger{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *ZLogger) addFields(event *zerolog.Event, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			event.AnErr(key, v)
		case time.Duration:
			event.Dur(key, v)
		default:
			event.Interface(key, v)
		}
	}
}

func currentOutput() io.Writer {
	if baseOutput != nil {
		return baseOutput
	}
	return createOutput(baseConfig)
}

func build(config Config, output io.Writer) zerolog.Logger {
	var l zerolog.Logger
	switch strings.ToLower(config.Format) {
	case "console":
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	default:
		l = zerolog.New(output).With().Timestamp().Logger()
	}

	if config.Component != "" {
		l = l.With().Str("component", config.Component).Logger()
	}
	return l
}

func createOutput(config Config) io.Writer {
	switch strings.ToLower(config.Output) {
	case "stderr":
		return os.Stderr
	case "file":
		if config.File != "" {
			file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				log.Printf("Erro ao abrir arquivo de log, usando stdout: %v", err)
				return os.Stdout
			}
			return file
		}
		return os.Stdout
	default:
		return os.Stdout
	}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

var globalLogger Logger

// Init fixa a configuração base usada por NewForComponent e pelo logger global.
func Init(config Config) {
	baseMu.Lock()
	baseConfig = config
	baseConfig.Component = ""
	baseOutput = createOutput(config)
	baseMu.Unlock()

	zerolog.SetGlobalLevel(parseLevel(config.Level))
	globalLogger = New(config)
}

func InitDefault() {
	globalLogger = NewDefault()
}

func Get() Logger {
	if globalLogger == nil {
		InitDefault()
	}
	return globalLogger
}

func Debug(msg string, fields ...any) {
	Get().Debug(msg, fields...)
}

func Info(msg string, fields ...any) {
	Get().Info(msg, fields...)
}

func Warn(msg string, fields ...any) {
	Get().Warn(msg, fields...)
}

func Error(msg string, fields ...any) {
	Get().Error(msg, fields...)
}

func Fatal(msg string, fields ...any) {
	Get().Fatal(msg, fields...)
}

func With(key string, value any) Logger {
	return Get().With(key, value)
}

func WithComponent(component string) Logger {
	return Get().WithComponent(component)
}
