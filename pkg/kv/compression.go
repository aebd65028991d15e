package kv

import (
	"fmt"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	decoder, _ = zstd.NewReader(nil)
)

func compress(bb []byte) []byte {
	return encoder.EncodeAll(bb, make([]byte, 0, len(bb)/4))
}

func decompress(bbCompressed []byte) ([]byte, error) {
	bb, err := decoder.DecodeAll(bbCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return bb, nil
}

func encodeNetwork(network *datastructure.RoadNetwork) ([]byte, error) {
	encoded, err := binary.Marshal(*network)
	if err != nil {
		return nil, fmt.Errorf("encode road network: %w", err)
	}
	return compress(encoded), nil
}

func decodeNetwork(bbCompressed []byte) (*datastructure.RoadNetwork, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var network datastructure.RoadNetwork
	if err := binary.Unmarshal(bb, &network); err != nil {
		return nil, fmt.Errorf("decode road network: %w", err)
	}
	return &network, nil
}
