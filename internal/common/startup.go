package common

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/mrscrape/docbench/internal/common/benchmarkerrors"
	commonconfig "github.com/mrscrape/docbench/internal/common/config"
	log "github.com/mrscrape/docbench/internal/common/logging"
)

const EnvPrefix = "DOCBENCH"

// LoadConfig reads config.yaml from defaultPath, then merges userSpecifiedConfigs over it in order,
// then applies DOCBENCH_-prefixed environment variables (dots in keys become underscores).
// The result is decoded into config using the custom decode hooks.
func LoadConfig(v *viper.Viper, config any, defaultPath string, userSpecifiedConfigs []string) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || len(userSpecifiedConfigs) == 0 {
			return &benchmarkerrors.ErrFatalConfig{Message: "error reading base config path " + defaultPath, Err: err}
		}
		log.Warnf("no config found in %s; relying on user specified config", defaultPath)
	} else {
		log.Infof("Read base config from %s", v.ConfigFileUsed())
	}

	for _, configPath := range userSpecifiedConfigs {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return &benchmarkerrors.ErrFatalConfig{Message: "error reading config from " + configPath, Err: err}
		}
		log.Infof("Read config from %s", configPath)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.Unmarshal(config, commonconfig.CustomHooks...); err != nil {
		return &benchmarkerrors.ErrFatalConfig{Message: "error decoding config", Err: err}
	}
	return nil
}

// ConfigureLogging installs the application logger and counts log lines per level on the given registerer.
func ConfigureLogging(registerer prometheus.Registerer) {
	log.MustConfigureApplicationLogging(log.NewPrometheusHook(registerer))
}
