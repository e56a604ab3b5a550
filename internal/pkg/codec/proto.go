package codec

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// Wire layout, equivalent to:
//
//	message Dataset {
//	  repeated Point points = 1;
//	  uint64 count = 2; // always written first, so an empty dataset is never a zero-length blob
//	}
//	message Point {
//	  double lat = 1;
//	  double lon = 2;
//	  sint64 unix_seconds = 3; // absent when the point has no timestamp
//	  uint32 nanos = 4;
//	}
const (
	fieldPoints protowire.Number = 1
	fieldCount  protowire.Number = 2

	fieldLat     protowire.Number = 1
	fieldLon     protowire.Number = 2
	fieldSeconds protowire.Number = 3
	fieldNanos   protowire.Number = 4
)

// Proto encodes the dataset as length-delimited protobuf records. Decoded
// timestamps are in UTC.
type Proto struct{}

func (Proto) Name() string { return "proto" }

func (Proto) Encode(ds *domain.Dataset) ([]byte, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 8+ds.Len()*32)
	out = protowire.AppendTag(out, fieldCount, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(ds.Len()))
	var rec []byte
	for i, c := range ds.Coordinates {
		rec = rec[:0]
		rec = protowire.AppendTag(rec, fieldLat, protowire.Fixed64Type)
		rec = protowire.AppendFixed64(rec, math.Float64bits(c.Lat))
		rec = protowire.AppendTag(rec, fieldLon, protowire.Fixed64Type)
		rec = protowire.AppendFixed64(rec, math.Float64bits(c.Lon))
		if ts := ds.Timestamps[i]; !ts.IsZero() {
			rec = protowire.AppendTag(rec, fieldSeconds, protowire.VarintType)
			rec = protowire.AppendVarint(rec, protowire.EncodeZigZag(ts.Unix()))
			if ns := ts.Nanosecond(); ns != 0 {
				rec = protowire.AppendTag(rec, fieldNanos, protowire.VarintType)
				rec = protowire.AppendVarint(rec, uint64(ns))
			}
		}
		out = protowire.AppendTag(out, fieldPoints, protowire.BytesType)
		out = protowire.AppendBytes(out, rec)
	}
	return out, nil
}

func (Proto) Decode(b []byte) (*domain.Dataset, error) {
	ds := domain.NewDataset(len(b) / 32)
	var (
		count     uint64
		haveCount bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("proto decode: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == fieldCount && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("proto decode: %w", protowire.ParseError(n))
			}
			b = b[n:]
			count, haveCount = v, true
			continue
		}
		if num != fieldPoints {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("proto decode: %w", protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("proto decode: field %d has wire type %d", num, typ)
		}
		rec, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("proto decode: %w", protowire.ParseError(n))
		}
		b = b[n:]
		p, err := decodePoint(rec)
		if err != nil {
			return nil, fmt.Errorf("proto decode point %d: %w", ds.Len(), err)
		}
		ds.Append(p)
	}
	if !haveCount {
		return nil, errMissingCount
	}
	if count != uint64(ds.Len()) {
		return nil, fmt.Errorf("proto decode: header says %d points, found %d", count, ds.Len())
	}
	return ds, nil
}

var (
	errMissingCoordinate = errors.New("missing coordinate")
	errMissingCount      = errors.New("proto decode: missing point count")
)

func decodePoint(b []byte) (domain.GpsPoint, error) {
	var (
		p           domain.GpsPoint
		haveLat     bool
		haveLon     bool
		haveSeconds bool
		secs        int64
		nanos       uint64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case (num == fieldLat || num == fieldLon) && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
			if num == fieldLat {
				p.Lat, haveLat = math.Float64frombits(v), true
			} else {
				p.Lon, haveLon = math.Float64frombits(v), true
			}
		case (num == fieldSeconds || num == fieldNanos) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
			if num == fieldSeconds {
				secs, haveSeconds = protowire.DecodeZigZag(v), true
			} else {
				nanos = v
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	if !haveLat || !haveLon {
		return p, errMissingCoordinate
	}
	if haveSeconds {
		p.Time = time.Unix(secs, int64(nanos)).UTC()
	}
	return p, nil
}
