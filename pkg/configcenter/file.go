package configcenter

import (
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/pingcap/errors"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
)

// FileConfigCenter serves values read once from YAML files. p may name a
// single file or a directory; files of a directory are merged in name
// order, later files overriding earlier ones.
type FileConfigCenter struct {
	path   string
	values config.Values
}

func CreateFileConfigCenter(p string) (*FileConfigCenter, error) {
	yamlFiles, err := listYamlFiles(p)
	if err != nil {
		return nil, err
	}

	c := newFileConfigCenter(p)
	for _, yamlFile := range yamlFiles {
		fileData, err := ioutil.ReadFile(yamlFile)
		if err != nil {
			return nil, err
		}
		values, err := config.UnmarshalValues(fileData)
		if err != nil {
			return nil, errors.Annotatef(err, "parse %s", yamlFile)
		}
		for k, v := range values {
			c.values[k] = v
		}
	}

	return c, nil
}

func newFileConfigCenter(p string) *FileConfigCenter {
	return &FileConfigCenter{
		path:   p,
		values: make(config.Values),
	}
}

func listYamlFiles(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	infos, err := ioutil.ReadDir(p)
	if err != nil {
		return nil, err
	}

	var ret []string
	for _, info := range infos {
		fileName := info.Name()
		if ext := path.Ext(fileName); ext == ".yaml" || ext == ".yml" {
			ret = append(ret, filepath.Join(p, fileName))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (f *FileConfigCenter) GetValue(name string) (string, error) {
	v, ok := f.values[name]
	if !ok {
		return "", errors.Annotatef(ErrValueNotFound, "name: %s", name)
	}
	return v, nil
}

func (f *FileConfigCenter) GetValueOr(name, defaultValue string) string {
	if v, ok := f.values[name]; ok {
		return v
	}
	return defaultValue
}

func (f *FileConfigCenter) Close() {}
