package configcenter

import (
	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
)

const (
	ConfigCenterTypeFile = "file"
	ConfigCenterTypeEtcd = "etcd"
)

var (
	ErrValueNotFound = errors.New("config value not found")
)

// ConfigCenter resolves the named values the database layer is configured
// with.
type ConfigCenter interface {
	GetValue(name string) (string, error)
	GetValueOr(name, defaultValue string) string
	Close()
}

func CreateConfigCenter(cfg config.ConfigCenter) (ConfigCenter, error) {
	switch cfg.Type {
	case ConfigCenterTypeFile:
		return CreateFileConfigCenter(cfg.ConfigFile.Path)
	case ConfigCenterTypeEtcd:
		return CreateEtcdConfigCenter(cfg.ConfigEtcd)
	default:
		return nil, errors.New("invalid config center type")
	}
}
