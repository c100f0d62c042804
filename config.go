package depot

import (
	"github.com/TheBitDrifter/table"
	"go.uber.org/zap"
)

// Config holds global configuration for every table created afterwards
var Config config = config{
	logger: zap.NewNop(),
}

type config struct {
	logger      *zap.Logger
	tableEvents table.TableEvents
}

// SetLogger sets the logger tables capture at construction. A nil logger disables logging
func (c *config) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

func (c *config) Logger() *zap.Logger {
	return c.logger
}

// SetTableEvents configures the table event callbacks used by dense tables
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

func tableLogger(kind, name string) *zap.Logger {
	return Config.logger.Named(kind).With(zap.String("table", name))
}
