package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/custody"
	"github.com/0xPolygon/pegcore/lightclient"
	"github.com/0xPolygon/pegcore/log"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for the config files
	FlagCfg = "cfg"
	// FlagSaveConfigPath is the flag for the folder where the rendered config is saved
	FlagSaveConfigPath = "save-config-path"
	// FlagOutputFile is the flag for the output file
	FlagOutputFile = "output"
	// FlagSchema is the flag to print the JSON schema of the config
	FlagSchema = "schema"

	EnvVarPrefix       = "PEGCORE"
	ConfigType         = "toml"
	SaveConfigFileName = "pegcore_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

/*
Config represents the configuration of the bridge core.
The files are in [TOML format]; JSON files are converted.

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// Common Config that affects all the services
	Common common.Config
	// Custody is the configuration of the bitcoin utxo custody engine
	Custody custody.Config
	// LightClient is the configuration of the execution chain light client
	LightClient lightclient.Config
}

// Load loads the configuration from the files of the cfg flag
func Load(ctx *cli.Context) (*Config, error) {
	files, err := readFiles(ctx.StringSlice(FlagCfg))
	if err != nil {
		return nil, err
	}
	return LoadFile(files, ctx.String(FlagSaveConfigPath))
}

func readFiles(paths []string) ([]FileData, error) {
	result := make([]FileData, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		converted, err := convertToToml(string(content), strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return nil, fmt.Errorf("error converting config file %s to toml: %w", path, err)
		}
		result = append(result, FileData{Name: path, Content: converted})
	}
	return result, nil
}

// Render merges the defaults with files and resolves the vars
func Render(files []FileData) (string, error) {
	all := make([]FileData, 0, len(files)+2) //nolint:mnd
	all = append(all, FileData{Name: "default_vars", Content: DefaultVars})
	all = append(all, FileData{Name: "default_values", Content: DefaultValues})
	all = append(all, files...)
	return NewRenderer(all, EnvVarPrefix).Render()
}

// LoadFile loads the configuration from files, on top of the defaults. If
// saveConfigPath is set the rendered config is written there
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	rendered, err := Render(files)
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := filepath.Join(saveConfigPath, SaveConfigFileName)
		if err := os.WriteFile(fullPath, []byte(rendered), DefaultCreationFilePermissions); err != nil {
			err = fmt.Errorf("error writing config file %s: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	return LoadFileFromString(rendered, ConfigType)
}

// LoadFileFromString decodes a rendered config, PEGCORE_* env vars override its keys
func LoadFileFromString(configData string, configType string) (*Config, error) {
	cfg := &Config{}
	if err := loadString(cfg, configData, configType, true, EnvVarPrefix); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadString(cfg *Config, configData string, configType string,
	allowEnvVars bool, envPrefix string) error {
	v := viper.New()
	v.SetConfigType(configType)
	if allowEnvVars {
		replacer := strings.NewReplacer(".", "_")
		v.SetEnvKeyReplacer(replacer)
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
	}
	if err := v.ReadConfig(bytes.NewBufferString(configData)); err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
	return v.Unmarshal(cfg, decodeHooks...)
}
