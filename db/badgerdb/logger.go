package badgerdb

import "github.com/celer-network/optimistic-rollup/log"

// extendedLog adapts this module's zerolog-based logger to badger's
// Logger interface (Errorf/Warningf/Infof/Debugf), so badger's internal
// diagnostics flow through the same structured sink as everything else.
type extendedLog struct {
	*log.Logger
}

func (l *extendedLog) Errorf(format string, args ...interface{}) {
	l.Logger.Error().Msgf(format, args...)
}

func (l *extendedLog) Warningf(format string, args ...interface{}) {
	l.Logger.Warn().Msgf(format, args...)
}

func (l *extendedLog) Infof(format string, args ...interface{}) {
	l.Logger.Info().Msgf(format, args...)
}

func (l *extendedLog) Debugf(format string, args ...interface{}) {
	l.Logger.Debug().Msgf(format, args...)
}
