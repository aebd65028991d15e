package osmparser

import (
	"context"
	"fmt"
	"os"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
)

// PBFProvider builds road networks straight from openstreetmap pbf extracts, one file per region.
type PBFProvider struct {
	files map[string]string
}

func NewPBFProvider(files map[string]string) *PBFProvider {
	return &PBFProvider{files: files}
}

func (pp *PBFProvider) Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error) {
	path, ok := pp.files[region]
	if !ok {
		return nil, fmt.Errorf("no openstreetmap file configured for region %q", region)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return NewOSMParser(network).Parse(ctx, f, region)
}
