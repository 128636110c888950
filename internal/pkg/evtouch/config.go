package evtouch

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-ini/ini"

	"github.com/evtouch/evtouch/internal/pkg/logger"
)

var log = logger.GetLogger()

type Config struct {
	Device struct {
		Path string
		Grab bool
	}

	Screen struct {
		Width  float64
		Height float64
	}

	Profiles struct {
		Directory string
	}
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config failed: %w", err)
	}

	cfg, err := ini.Load(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config failed: %w", err)
	}

	var c Config

	device := cfg.Section("device")
	c.Device.Path = device.Key("path").String()

	b, err := device.Key("grab").Bool()
	if err != nil {
		return Config{}, fmt.Errorf("device.grab: %w", err)
	}
	c.Device.Grab = b

	screen := cfg.Section("screen")
	f, err := screen.Key("width").Float64()
	if err != nil {
		return Config{}, fmt.Errorf("screen.width: %w", err)
	}
	c.Screen.Width = f

	f, err = screen.Key("height").Float64()
	if err != nil {
		return Config{}, fmt.Errorf("screen.height: %w", err)
	}
	c.Screen.Height = f

	c.Profiles.Directory = cfg.Section("profiles").Key("directory").String()

	return c, nil
}

//go:embed evtouch-config/evtouch.config
//go:embed evtouch-config/profiles/*
var templateConfig embed.FS

const ConfigDir = "evtouch-config"
const ConfigFile = ConfigDir + "/evtouch.config"

// CreateConfigDirectoryIfNeeded writes the embedded default config tree on
// first run, an existing tree stays intact
func CreateConfigDirectoryIfNeeded() error {
	cdir, err := os.OpenFile(ConfigDir, os.O_RDONLY, 0)
	if err == nil {
		cdir.Close()
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot open config directory: %w", err)
	}

	log.Info("config not exist, generating tree...", logger.Info)

	err = fs.WalkDir(templateConfig, ConfigDir, func(path string, d fs.DirEntry, err error) error {
		if d.IsDir() {
			err := os.Mkdir(path, 0o777)
			if err != nil {
				return fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
			}
			return nil
		}

		dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			return fmt.Errorf("cannot open \"%s\" file: %w", path, err)
		}
		defer dst.Close()

		data, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
		}

		_, err = dst.Write(data)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", path, err)
		}

		log.Info(fmt.Sprintf("Created \"%s\" file", path), logger.Debug)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("config generation done", logger.Info)
	return nil
}
