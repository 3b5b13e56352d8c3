package repomanager

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// gooseLogger routes goose output through the service logger.
type gooseLogger struct {
	logger logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
