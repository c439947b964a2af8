package intercept

import (
	"time"

	"go.uber.org/zap"
)

// Logging returns a hook that logs every call and its outcome at debug level.
func Logging(logger *zap.Logger) Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		logger.Debug("calling", zap.String("service", m.Service), zap.String("method", m.Name), zap.Int("args", len(args)))
		results, err := next()
		if err != nil {
			logger.Debug("call failed", zap.String("service", m.Service), zap.String("method", m.Name), zap.Error(err))
			return results, err
		}
		logger.Debug("call returned", zap.String("service", m.Service), zap.String("method", m.Name))
		return results, nil
	})
}

// Timing returns a hook that reports the duration of everything downstream
// of it, including later hooks and the real call. A nil observe yields a
// nil Interceptor, which registration rejects.
func Timing(observe func(m Method, elapsed time.Duration)) Interceptor {
	if observe == nil {
		return nil
	}
	return Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		start := time.Now()
		results, err := next()
		observe(m, time.Since(start))
		return results, err
	})
}
