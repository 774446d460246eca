// Package autoload initializes the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/phurits/ordermind/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		conf = *logx.DefaultConfig
	}
	logx.Init(conf)
}
