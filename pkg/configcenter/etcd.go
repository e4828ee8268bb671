package configcenter

import (
	"context"
	"path"
	"time"

	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	wErrors "github.com/ruslan-ilesik/games-bot-sub000/pkg/util/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/util/logutil"
	"go.etcd.io/etcd/clientv3"
	"go.uber.org/zap"
)

const (
	DefaultEtcdDialTimeout    = 3 * time.Second
	DefaultEtcdRequestTimeout = 3 * time.Second
)

// EtcdConfigCenter reads every value from etcd, under basePath/<name>.
type EtcdConfigCenter struct {
	etcdClient *clientv3.Client
	kv         clientv3.KV
	basePath   string
	timeout    time.Duration
}

func CreateEtcdConfigCenter(cfg config.ConfigEtcd) (*EtcdConfigCenter, error) {
	etcdConfig := clientv3.Config{
		Endpoints:   cfg.Addrs,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: DefaultEtcdDialTimeout,
	}
	etcdClient, err := clientv3.New(etcdConfig)
	if err != nil {
		return nil, errors.WithMessage(err, "create etcd config center error")
	}

	center := NewEtcdConfigCenter(etcdClient, cfg.BasePath)
	return center, nil
}

func NewEtcdConfigCenter(etcdClient *clientv3.Client, basePath string) *EtcdConfigCenter {
	return &EtcdConfigCenter{
		etcdClient: etcdClient,
		kv:         clientv3.NewKV(etcdClient),
		basePath:   basePath,
		timeout:    DefaultEtcdRequestTimeout,
	}
}

func (e *EtcdConfigCenter) get(ctx context.Context, name string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.kv.Get(ctx, getValuePath(e.basePath, name))
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(resp.Kvs) == 0 {
		return nil, errors.Annotatef(ErrValueNotFound, "name: %s", name)
	}
	return resp.Kvs[0].Value, nil
}

func (e *EtcdConfigCenter) GetValue(name string) (string, error) {
	value, err := e.get(context.Background(), name)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (e *EtcdConfigCenter) GetValueOr(name, defaultValue string) string {
	value, err := e.get(context.Background(), name)
	if err != nil {
		if !wErrors.Is(err, ErrValueNotFound) {
			logutil.BgLogger().Warn("get config value from etcd error, use default",
				zap.String("name", name), zap.String("default", defaultValue), zap.Error(err))
		}
		return defaultValue
	}
	return string(value)
}

func (e *EtcdConfigCenter) Close() {
	if e.etcdClient == nil {
		return
	}
	if err := e.etcdClient.Close(); err != nil {
		logutil.BgLogger().Error("close etcd client error", zap.Error(err))
	}
}

func getValuePath(basePath, name string) string {
	return path.Join(basePath, name)
}
