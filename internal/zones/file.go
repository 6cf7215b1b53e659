package zones

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ooh-planner/internal/geo"
)

// fileDoc is the on-disk layout of a zone file.
type fileDoc struct {
	Zones []geo.Zone `yaml:"zones"`
}

// LoadFile reads a zone list written by SaveFile. A missing file is an empty
// list. Every zone is validated.
func LoadFile(path string) ([]geo.Zone, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "zones: read file")
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "zones: parse %s", path)
	}
	for _, z := range doc.Zones {
		if err := z.Validate(); err != nil {
			return nil, eris.Wrapf(err, "zones: %s", path)
		}
	}
	return doc.Zones, nil
}

// SaveFile writes zones to path, replacing it atomically.
func SaveFile(path string, zones []geo.Zone) error {
	data, err := yaml.Marshal(fileDoc{Zones: zones})
	if err != nil {
		return eris.Wrap(err, "zones: encode file")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "zones: write file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "zones: replace file")
	}
	return nil
}
